package usecase

import "context"

// SubmissionEndpoints lists the public submission routes advertised by the health check
var SubmissionEndpoints = []string{"/send-email", "/send-career-email"}

type HealthStatus struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}

type healthUsecase struct{}

func NewHealthUsecase() HealthUsecase {
	return &healthUsecase{}
}

func (u *healthUsecase) Check(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Endpoints: SubmissionEndpoints,
	}
}
