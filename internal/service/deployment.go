package service

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"

	"ideaboard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidDeployment = errors.New("invalid deployment")

var (
	Environments = []string{"Production", "Staging", "Development"}
	InputFormats = []string{"JSON", "CSV", "Parquet", "Real-time Stream"}

	// InstanceTypes maps the form value to its display label.
	InstanceTypes = map[string]string{
		"small":  "Small (1 CPU, 2GB RAM)",
		"medium": "Medium (2 CPU, 4GB RAM)",
		"large":  "Large (4 CPU, 8GB RAM)",
		"xlarge": "XLarge (8 CPU, 16GB RAM)",
	}

	modelNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// DeploymentService validates deployment forms and fakes a rollout.
// Nothing is deployed and nothing is stored.
type DeploymentService struct {
	endpointBase string
	now          func() time.Time
	logger       *zap.Logger
}

func NewDeploymentService(endpointBase string, logger *zap.Logger) *DeploymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeploymentService{
		endpointBase: strings.TrimRight(endpointBase, "/"),
		now:          time.Now,
		logger:       logger.Named("deploy"),
	}
}

// Defaults returns the pre-filled form for an idea.
func (s *DeploymentService) Defaults(idea string) models.DeploymentRequest {
	return models.DeploymentRequest{
		Idea:             idea,
		ModelName:        idea + "_v1",
		Environment:      "Staging",
		APIRateLimit:     1000,
		EnableAuth:       true,
		InstanceType:     "medium",
		AutoScaling:      true,
		MinInstances:     1,
		MaxInstances:     5,
		EnableMonitoring: true,
		InputFormat:      "JSON",
	}
}

// Validate checks every field against the form's bounds and joins all problems.
func (s *DeploymentService) Validate(req models.DeploymentRequest) error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if req.Idea == "" {
		add("idea is required")
	}
	if !modelNamePattern.MatchString(req.ModelName) {
		add("model_name must be non-empty and contain only letters, digits, '_', '.' or '-'")
	}
	if !slices.Contains(Environments, req.Environment) {
		add("environment must be one of %s", strings.Join(Environments, ", "))
	}
	if req.APIRateLimit < 10 || req.APIRateLimit > 10000 {
		add("api_rate_limit must be between 10 and 10000")
	}
	if _, ok := InstanceTypes[req.InstanceType]; !ok {
		add("instance_type must be one of small, medium, large, xlarge")
	}
	if req.AutoScaling {
		if req.MinInstances < 1 || req.MinInstances > 10 {
			add("min_instances must be between 1 and 10")
		}
		if req.MaxInstances < 1 || req.MaxInstances > 50 {
			add("max_instances must be between 1 and 50")
		}
		if req.MaxInstances < req.MinInstances {
			add("max_instances must not be less than min_instances")
		}
	}
	if req.AlertEmail != "" {
		if _, err := mail.ParseAddress(req.AlertEmail); err != nil {
			add("alert_email is not a valid address")
		}
	}
	if !slices.Contains(InputFormats, req.InputFormat) {
		add("input_format must be one of %s", strings.Join(InputFormats, ", "))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDeployment, errors.Join(errs...))
}

// Deploy validates the request and returns a deployment marked live.
func (s *DeploymentService) Deploy(req models.DeploymentRequest) (*models.Deployment, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	d := &models.Deployment{
		ID:          uuid.NewString(),
		Idea:        req.Idea,
		ModelName:   req.ModelName,
		Environment: req.Environment,
		Instance:    InstanceTypes[req.InstanceType],
		Endpoint:    s.endpointBase + "/" + req.ModelName,
		Status:      "live",
		CreatedAt:   s.now().UTC(),
	}
	s.logger.Info("Simulated deployment",
		zap.String("id", d.ID),
		zap.String("idea", d.Idea),
		zap.String("model", d.ModelName),
		zap.String("environment", d.Environment))
	return d, nil
}
