package client

// User mirrors the user object returned by the API.
type User struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	BloodGroup string `json:"blood_group"`
}

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role,omitempty"`
	BloodGroup string `json:"blood_group,omitempty"`
}

type InventoryEntry struct {
	BloodGroup string `json:"blood_group"`
	TotalML    uint64 `json:"total_ml"`
}

type Donation struct {
	ID         uint64 `json:"id"`
	DonorID    uint64 `json:"donor_id"`
	BloodGroup string `json:"blood_group"`
	DonatedOn  string `json:"donated_on"`
	QuantityML uint32 `json:"quantity_ml"`
	Center     string `json:"center"`
	Status     string `json:"status"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// DonationQuery selects a page of history.  Zero values are omitted.
type DonationQuery struct {
	Page     int
	PageSize int
	Year     int
	Center   string
	Status   string
}

type DonationPage struct {
	Donations  []Donation `json:"donations"`
	Pagination Pagination `json:"pagination"`
}

type NewDonation struct {
	DonorID    uint64 `json:"donor_id,omitempty"`
	DonatedOn  string `json:"donated_on,omitempty"`
	Center     string `json:"center"`
	QuantityML int    `json:"quantity_ml"`
}

type Eligibility struct {
	Eligible         bool     `json:"eligible"`
	NextEligibleDate string   `json:"nextEligibleDate"`
	LastDonationDate *string  `json:"lastDonationDate"`
	DaysSinceLast    *int     `json:"daysSinceLast"`
	HealthTips       []string `json:"healthTips,omitempty"`
}

type NewRequest struct {
	PatientName string `json:"patient_name"`
	BloodGroup  string `json:"blood_group"`
	RequestedML int    `json:"requested_ml"`
	Hospital    string `json:"hospital"`
	RequestedOn string `json:"requested_on,omitempty"`
}

type Request struct {
	ID          uint64 `json:"id"`
	RequestedBy uint64 `json:"requested_by"`
	PatientName string `json:"patient_name"`
	BloodGroup  string `json:"blood_group"`
	RequestedML uint32 `json:"requested_ml"`
	Hospital    string `json:"hospital"`
	RequestedOn string `json:"requested_on"`
	Status      string `json:"status"`
}
