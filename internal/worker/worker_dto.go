package worker

type CreateWorkerRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	OnCompanyCar bool   `json:"on_company_car"`
	IsManager    bool   `json:"is_manager"`
}

type UpdateWorkerRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	OnCompanyCar bool   `json:"on_company_car"`
	IsManager    bool   `json:"is_manager"`
}

type WorkerResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	OnCompanyCar bool   `json:"on_company_car"`
	IsManager    bool   `json:"is_manager"`
}
