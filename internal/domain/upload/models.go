package upload

const (
	MaxRecords        = 500
	MaxReportedErrors = 10
)

const (
	ColIdentificationType   = "identification_type"
	ColIdentificationNumber = "identification_number"
	ColRegistrationNumber   = "registration_number"
	ColRegulator            = "regulator"
	ColEmploymentType       = "employment_type"
	ColDesignation          = "designation"
	ColStartDate            = "start_date"
	ColEndDate              = "end_date"
)

// RequiredColumns must be present in the header and non-empty in every row.
var RequiredColumns = []string{
	ColIdentificationType,
	ColIdentificationNumber,
	ColEmploymentType,
	ColDesignation,
	ColStartDate,
}

// TemplateColumns is the header order of the downloadable template.
var TemplateColumns = []string{
	ColIdentificationType,
	ColIdentificationNumber,
	ColRegistrationNumber,
	ColRegulator,
	ColEmploymentType,
	ColDesignation,
	ColStartDate,
	ColEndDate,
}

// EmploymentTypes lists the known values; others are accepted as-is.
var EmploymentTypes = []string{
	"Full-time Employee",
	"Part-time Employee",
	"Contract",
	"Locum",
	"Volunteer",
	"Intern",
}

// Record is one health worker row ready for submission.
type Record struct {
	IdentificationType   string `json:"identification_type"`
	IdentificationNumber string `json:"identification_number"`
	RegistrationNumber   string `json:"registration_number"`
	Regulator            string `json:"regulator"`
	EmploymentType       string `json:"employment_type"`
	Designation          string `json:"designation"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
}

// Row is a parsed line keyed by lower-cased column name.
type Row struct {
	Line   int
	Values map[string]string
}

func (r Row) Get(column string) string {
	return r.Values[column]
}

// Table is the result of parsing a delimited file or sheet.
type Table struct {
	Header []string
	Rows   []Row
}

func (t Table) HasColumn(column string) bool {
	for _, h := range t.Header {
		if h == column {
			return true
		}
	}
	return false
}

func recordFromRow(row Row) Record {
	return Record{
		IdentificationType:   row.Get(ColIdentificationType),
		IdentificationNumber: row.Get(ColIdentificationNumber),
		RegistrationNumber:   row.Get(ColRegistrationNumber),
		Regulator:            row.Get(ColRegulator),
		EmploymentType:       row.Get(ColEmploymentType),
		Designation:          row.Get(ColDesignation),
		StartDate:            row.Get(ColStartDate),
		EndDate:              row.Get(ColEndDate),
	}
}
