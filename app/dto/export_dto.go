package dto

// ExportTariffsRequest represents the request to export approved tariffs to a spreadsheet
type ExportTariffsRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// ExportTariffsResponse represents the result of a bulk tariff export
type ExportTariffsResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Exported int    `json:"exported"`
}
