package models

// PhoneStatus is the externally visible snapshot of the phone bridge state.
// Pointer fields serialize as null when the value has never been set.
type PhoneStatus struct {
	Connected   bool    `json:"connected"`
	IP          *string `json:"ip"`
	LastChecked *string `json:"last_checked"`
	LastError   *string `json:"last_error"`
}
