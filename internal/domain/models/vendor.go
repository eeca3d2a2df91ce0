package models

// Vendor operates transports in a city.
type Vendor struct {
	ID         int64  `json:"id"`
	VendorName string `json:"vendorName"`
	CityID     int64  `json:"cityId"`
	City       *City  `json:"city,omitempty"`
}

// Transport is a vehicle owned by a vendor.
type Transport struct {
	ID          int64   `json:"id"`
	TransportID string  `json:"transportId"`
	VehicleNo   string  `json:"vehicleNo"`
	VendorID    int64   `json:"vendorId"`
	Type        string  `json:"type"`
	Vendor      *Vendor `json:"vendor,omitempty"`
}

// Label is how a transport is shown in pickers: "<transportId> - <vehicleNo>".
func (t Transport) Label() string {
	return t.TransportID + " - " + t.VehicleNo
}
