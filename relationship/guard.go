package relationship

import "sync"

// actorGuard allows one in-flight operation per actor. It is not a global
// lock: different actors never contend.
type actorGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func newActorGuard() *actorGuard {
	return &actorGuard{inflight: make(map[string]struct{})}
}

// acquire returns a release func, or ok=false when actor already holds the
// guard. release is idempotent.
func (g *actorGuard) acquire(actor string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[actor]; busy {
		return nil, false
	}
	g.inflight[actor] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, actor)
			g.mu.Unlock()
		})
	}, true
}

func (g *actorGuard) held(actor string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[actor]
	return ok
}
