package location

import (
	"context"
	"sync"

	"vault/apperr"
	"vault/models"
)

// Sampler produces device positions. It returns
// apperr.ErrLocationPermissionDenied or apperr.ErrLocationUnavailable when
// no further samples will come.
type Sampler interface {
	Sample(ctx context.Context) (models.Location, error)
}

// PushSampler is a Sampler fed by a client that pushes its own positions.
// Only the newest unread position is kept.
type PushSampler struct {
	latest chan models.Location
	stop   chan struct{}
	once   sync.Once
}

func NewPushSampler() *PushSampler {
	return &PushSampler{
		latest: make(chan models.Location, 1),
		stop:   make(chan struct{}),
	}
}

// Push offers loc, replacing any position not yet sampled.
func (p *PushSampler) Push(loc models.Location) {
	for {
		select {
		case <-p.stop:
			return
		case p.latest <- loc:
			return
		default:
		}
		select {
		case <-p.latest:
		default:
		}
	}
}

func (p *PushSampler) Sample(ctx context.Context) (models.Location, error) {
	select {
	case loc := <-p.latest:
		return loc, nil
	case <-p.stop:
		return models.Location{}, apperr.ErrLocationUnavailable
	case <-ctx.Done():
		return models.Location{}, ctx.Err()
	}
}

// Stop ends sampling; a pending Sample returns ErrLocationUnavailable.
func (p *PushSampler) Stop() {
	p.once.Do(func() { close(p.stop) })
}
