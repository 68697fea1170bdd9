package jobparse

type parseJobRequest struct {
	JobURL     string `json:"jobUrl"`
	ProviderID string `json:"providerId"`
}
