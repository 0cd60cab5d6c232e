package location

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// ErrUnavailable is returned by a Locator that cannot produce a position.
var ErrUnavailable = errors.New("location unavailable")

// Locator asks the device (or a stand-in) for its current position.
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// StaticLocator always reports a configured position.
type StaticLocator struct {
	pos *models.Position
}

// NewStaticLocator creates a locator for pos. A nil pos makes every
// lookup fail with ErrUnavailable.
func NewStaticLocator(pos *models.Position) *StaticLocator {
	return &StaticLocator{pos: pos}
}

// Locate returns the configured position.
func (l *StaticLocator) Locate(ctx context.Context) (models.Position, error) {
	if err := ctx.Err(); err != nil {
		return models.Position{}, err
	}
	if l.pos == nil {
		return models.Position{}, ErrUnavailable
	}
	return copyPosition(*l.pos), nil
}

// Test locations around Provence used in debug mode.
var TestLocations = []models.Position{
	testLocation(43.5297, 5.4474, 150), // Aix-en-Provence center
	testLocation(43.5267, 5.4444, 145), // Aix-en-Provence, Cours Mirabeau
	testLocation(43.5317, 5.4414, 155), // Aix-en-Provence, Parc Jourdan
	testLocation(43.2951, 5.3761, 10),  // Marseille, Vieux Port
	testLocation(43.2841, 5.3711, 150), // Marseille, Notre-Dame de la Garde
	testLocation(43.6959, 7.2644, 5),   // Nice, Promenade des Anglais
	testLocation(43.5528, 7.0174, 8),   // Cannes, Croisette
	testLocation(43.9493, 4.8055, 20),  // Avignon, Palais des Papes
	testLocation(43.6766, 4.6277, 15),  // Arles, Amphitheatre
	testLocation(43.8367, 4.3601, 40),  // Nimes, Arenes
}

const (
	// Max offset from a test location in degrees, roughly 500m
	debugJitterDeg = 0.005

	// Max altitude offset in meters
	debugJitterAltM = 10
)

// DebugLocator returns a random test location with a small offset so that
// photos taken in debug mode form clusters on the map.
type DebugLocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDebugLocator creates a debug locator. A nil rng uses a random seed.
func NewDebugLocator(rng *rand.Rand) *DebugLocator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DebugLocator{rng: rng}
}

// Locate returns a jittered test location.
func (l *DebugLocator) Locate(_ context.Context) (models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	base := TestLocations[l.rng.IntN(len(TestLocations))]
	alt := *base.Altitude + l.jitter(debugJitterAltM)

	return models.Position{
		GeoPoint: models.GeoPoint{
			Lat: base.Lat + l.jitter(debugJitterDeg),
			Lon: base.Lon + l.jitter(debugJitterDeg),
		},
		Altitude: &alt,
	}, nil
}

// jitter returns a uniform value in [-span, span).
func (l *DebugLocator) jitter(span float64) float64 {
	return (l.rng.Float64() - 0.5) * 2 * span
}

func testLocation(lat, lon, alt float64) models.Position {
	return models.Position{
		GeoPoint: models.GeoPoint{Lat: lat, Lon: lon},
		Altitude: &alt,
	}
}

func copyPosition(p models.Position) models.Position {
	if p.Altitude != nil {
		alt := *p.Altitude
		p.Altitude = &alt
	}
	return p
}
