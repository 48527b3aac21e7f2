package api

// UpdatePhoneIPRequest is the HTTP request body for POST /phone/update_ip.
type UpdatePhoneIPRequest struct {
	IP string `json:"ip"`
}
