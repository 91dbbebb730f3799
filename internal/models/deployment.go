package models

import "time"

// DeploymentRequest mirrors the deployment configuration form.
type DeploymentRequest struct {
	Idea             string `json:"idea"`
	ModelName        string `json:"model_name"`
	Environment      string `json:"environment"`
	APIRateLimit     int    `json:"api_rate_limit"`
	EnableAuth       bool   `json:"enable_auth"`
	InstanceType     string `json:"instance_type"`
	AutoScaling      bool   `json:"auto_scaling"`
	MinInstances     int    `json:"min_instances"`
	MaxInstances     int    `json:"max_instances"`
	EnableMonitoring bool   `json:"enable_monitoring"`
	AlertEmail       string `json:"alert_email,omitempty"`
	InputFormat      string `json:"input_format"`
	BatchProcessing  bool   `json:"batch_processing"`
}

// Deployment is the (simulated) outcome of a deploy.
type Deployment struct {
	ID          string    `json:"id"`
	Idea        string    `json:"idea"`
	ModelName   string    `json:"model_name"`
	Environment string    `json:"environment"`
	Instance    string    `json:"instance"`
	Endpoint    string    `json:"endpoint"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
