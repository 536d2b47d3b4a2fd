package publisher

import (
	"context"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
)

// AlertPublisher fans out a freshly created delivery alert to an external
// consumer (message broker, live console feed). Publishing is best effort:
// failures are logged by the caller, never retried.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.DeliveryAlert) error
}
