package listing

import (
	"time"

	"hwportal/internal/platform/backend"
)

type Affiliation struct {
	ID                   string     `json:"id"`
	ProfessionalName     string     `json:"professionalName"`
	IdentificationType   string     `json:"identificationType"`
	IdentificationNumber string     `json:"identificationNumber"`
	RegistrationNumber   string     `json:"registrationNumber"`
	Cadre                string     `json:"cadre"`
	Designation          string     `json:"designation"`
	EmploymentType       string     `json:"employmentType"`
	FacilityID           string     `json:"facilityId"`
	FacilityName         string     `json:"facilityName"`
	Status               string     `json:"status"`
	StartDate            string     `json:"startDate"`
	EndDate              string     `json:"endDate,omitempty"`
	RequestedAt          *time.Time `json:"requestedAt,omitempty"`
}

type affiliationDTO struct {
	Name                 string       `json:"name"`
	ProfessionalName     string       `json:"professional_name"`
	HealthProfessional   string       `json:"health_professional_name"`
	IdentificationType   string       `json:"identification_type"`
	IdentificationNumber string       `json:"identification_number"`
	RegistrationNumber   string       `json:"registration_number"`
	Cadre                string       `json:"professional_cadre"`
	Designation          string       `json:"designation"`
	EmploymentType       string       `json:"employment_type"`
	Facility             string       `json:"health_facility"`
	FacilityID           string       `json:"facility_id"`
	FacilityName         string       `json:"facility_name"`
	Status               string       `json:"affiliation_status"`
	PlainStatus          string       `json:"status"`
	StartDate            string       `json:"start_date"`
	EndDate              string       `json:"end_date"`
	RequestedOn          backend.Time `json:"requested_date"`
	Creation             backend.Time `json:"creation"`
}

func (d affiliationDTO) row() Affiliation {
	a := Affiliation{
		ID:                   d.Name,
		ProfessionalName:     pick(d.ProfessionalName, d.HealthProfessional),
		IdentificationType:   d.IdentificationType,
		IdentificationNumber: d.IdentificationNumber,
		RegistrationNumber:   d.RegistrationNumber,
		Cadre:                d.Cadre,
		Designation:          d.Designation,
		EmploymentType:       d.EmploymentType,
		FacilityID:           pick(d.Facility, d.FacilityID),
		FacilityName:         d.FacilityName,
		Status:               pick(d.Status, d.PlainStatus, "Pending"),
		StartDate:            d.StartDate,
		EndDate:              d.EndDate,
		RequestedAt:          timePtr(d.RequestedOn, d.Creation),
	}
	if a.FacilityName == "" {
		a.FacilityName = a.FacilityID
	}
	return a
}

type ExpenseClaim struct {
	ID              string  `json:"id"`
	Employee        string  `json:"employee"`
	EmployeeName    string  `json:"employeeName"`
	Facility        string  `json:"facility"`
	ExpenseType     string  `json:"expenseType"`
	PostingDate     string  `json:"postingDate"`
	TotalClaimed    float64 `json:"totalClaimed"`
	TotalSanctioned float64 `json:"totalSanctioned"`
	ApprovalStatus  string  `json:"approvalStatus"`
	Status          string  `json:"status"`
}

type expenseClaimDTO struct {
	Name                  string        `json:"name"`
	Employee              string        `json:"employee"`
	EmployeeName          string        `json:"employee_name"`
	Facility              string        `json:"health_facility"`
	Company               string        `json:"company"`
	ExpenseType           string        `json:"expense_type"`
	PostingDate           string        `json:"posting_date"`
	TotalClaimedAmount    backend.Float `json:"total_claimed_amount"`
	TotalSanctionedAmount backend.Float `json:"total_sanctioned_amount"`
	ApprovalStatus        string        `json:"approval_status"`
	Status                string        `json:"status"`
}

func (d expenseClaimDTO) row() ExpenseClaim {
	return ExpenseClaim{
		ID:              d.Name,
		Employee:        d.Employee,
		EmployeeName:    pick(d.EmployeeName, d.Employee),
		Facility:        pick(d.Facility, d.Company),
		ExpenseType:     d.ExpenseType,
		PostingDate:     d.PostingDate,
		TotalClaimed:    float64(d.TotalClaimedAmount),
		TotalSanctioned: float64(d.TotalSanctionedAmount),
		ApprovalStatus:  pick(d.ApprovalStatus, "Draft"),
		Status:          pick(d.Status, "Draft"),
	}
}

type PurchaseOrder struct {
	ID              string  `json:"id"`
	Supplier        string  `json:"supplier"`
	Facility        string  `json:"facility"`
	TransactionDate string  `json:"transactionDate"`
	ScheduleDate    string  `json:"scheduleDate"`
	GrandTotal      float64 `json:"grandTotal"`
	Currency        string  `json:"currency"`
	PerReceived     float64 `json:"perReceived"`
	PerBilled       float64 `json:"perBilled"`
	Status          string  `json:"status"`
}

type purchaseOrderDTO struct {
	Name            string        `json:"name"`
	Supplier        string        `json:"supplier"`
	SupplierName    string        `json:"supplier_name"`
	Facility        string        `json:"health_facility"`
	Company         string        `json:"company"`
	TransactionDate string        `json:"transaction_date"`
	ScheduleDate    string        `json:"schedule_date"`
	GrandTotal      backend.Float `json:"grand_total"`
	Currency        string        `json:"currency"`
	PerReceived     backend.Float `json:"per_received"`
	PerBilled       backend.Float `json:"per_billed"`
	Status          string        `json:"status"`
}

func (d purchaseOrderDTO) row() PurchaseOrder {
	return PurchaseOrder{
		ID:              d.Name,
		Supplier:        pick(d.SupplierName, d.Supplier),
		Facility:        pick(d.Facility, d.Company),
		TransactionDate: d.TransactionDate,
		ScheduleDate:    d.ScheduleDate,
		GrandTotal:      float64(d.GrandTotal),
		Currency:        pick(d.Currency, "KES"),
		PerReceived:     clampRate(float64(d.PerReceived)),
		PerBilled:       clampRate(float64(d.PerBilled)),
		Status:          pick(d.Status, "Draft"),
	}
}

type MaterialRequest struct {
	ID              string  `json:"id"`
	RequestType     string  `json:"requestType"`
	Facility        string  `json:"facility"`
	Warehouse       string  `json:"warehouse"`
	TransactionDate string  `json:"transactionDate"`
	ScheduleDate    string  `json:"scheduleDate"`
	PerOrdered      float64 `json:"perOrdered"`
	Status          string  `json:"status"`
}

type materialRequestDTO struct {
	Name                string        `json:"name"`
	MaterialRequestType string        `json:"material_request_type"`
	Facility            string        `json:"health_facility"`
	Company             string        `json:"company"`
	SetWarehouse        string        `json:"set_warehouse"`
	TransactionDate     string        `json:"transaction_date"`
	ScheduleDate        string        `json:"schedule_date"`
	PerOrdered          backend.Float `json:"per_ordered"`
	Status              string        `json:"status"`
}

func (d materialRequestDTO) row() MaterialRequest {
	return MaterialRequest{
		ID:              d.Name,
		RequestType:     pick(d.MaterialRequestType, "Purchase"),
		Facility:        pick(d.Facility, d.Company),
		Warehouse:       d.SetWarehouse,
		TransactionDate: d.TransactionDate,
		ScheduleDate:    d.ScheduleDate,
		PerOrdered:      clampRate(float64(d.PerOrdered)),
		Status:          pick(d.Status, "Draft"),
	}
}

type Asset struct {
	ID             string  `json:"id"`
	AssetName      string  `json:"assetName"`
	AssetCategory  string  `json:"assetCategory"`
	ItemCode       string  `json:"itemCode"`
	Facility       string  `json:"facility"`
	Location       string  `json:"location"`
	PurchaseDate   string  `json:"purchaseDate"`
	PurchaseAmount float64 `json:"purchaseAmount"`
	Status         string  `json:"status"`
}

type assetDTO struct {
	Name                string        `json:"name"`
	AssetName           string        `json:"asset_name"`
	AssetCategory       string        `json:"asset_category"`
	ItemCode            string        `json:"item_code"`
	Facility            string        `json:"health_facility"`
	Company             string        `json:"company"`
	Location            string        `json:"location"`
	PurchaseDate        string        `json:"purchase_date"`
	GrossPurchaseAmount backend.Float `json:"gross_purchase_amount"`
	Status              string        `json:"status"`
}

func (d assetDTO) row() Asset {
	return Asset{
		ID:             d.Name,
		AssetName:      pick(d.AssetName, d.Name),
		AssetCategory:  d.AssetCategory,
		ItemCode:       d.ItemCode,
		Facility:       pick(d.Facility, d.Company),
		Location:       d.Location,
		PurchaseDate:   d.PurchaseDate,
		PurchaseAmount: float64(d.GrossPurchaseAmount),
		Status:         pick(d.Status, "Draft"),
	}
}

type Facility struct {
	ID           string `json:"id"`
	FacilityName string `json:"facilityName"`
	FacilityType string `json:"facilityType"`
	KephLevel    string `json:"kephLevel"`
	County       string `json:"county"`
	SubCounty    string `json:"subCounty"`
	Owner        string `json:"owner"`
	BedCapacity  int    `json:"bedCapacity"`
	Status       string `json:"status"`
}

type facilityDTO struct {
	Name            string      `json:"name"`
	FacilityID      string      `json:"facility_id"`
	FacilityName    string      `json:"facility_name"`
	FacilityType    string      `json:"facility_type"`
	KephLevel       string      `json:"keph_level"`
	County          string      `json:"county"`
	SubCounty       string      `json:"sub_county"`
	FacilityOwner   string      `json:"facility_owner"`
	BedCapacity     backend.Int `json:"bed_capacity"`
	OperationStatus string      `json:"operational_status"`
	Status          string      `json:"status"`
}

func (d facilityDTO) row() Facility {
	return Facility{
		ID:           pick(d.FacilityID, d.Name),
		FacilityName: pick(d.FacilityName, d.Name),
		FacilityType: d.FacilityType,
		KephLevel:    d.KephLevel,
		County:       d.County,
		SubCounty:    d.SubCounty,
		Owner:        d.FacilityOwner,
		BedCapacity:  max(int(d.BedCapacity), 0),
		Status:       pick(d.OperationStatus, d.Status, "Active"),
	}
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func timePtr(candidates ...backend.Time) *time.Time {
	for _, c := range candidates {
		if !c.IsZero() {
			t := c.Time
			return &t
		}
	}
	return nil
}
