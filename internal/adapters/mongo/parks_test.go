package mongo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	mongoadapter "github.com/sarawakparks/park-reservations/internal/adapters/mongo"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newParkRepo(t *testing.T) *mongoadapter.ParkRepository {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForExec([]string{"mongosh", "--eval", "db.runCommand('ping').ok"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mongoContainer.Terminate(ctx) })

	host, err := mongoContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := mongoContainer.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatal(err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+host+":"+port.Port()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Disconnect(ctx) })

	return mongoadapter.NewParkRepository(client.Database("park_system_test"), observability.NewLogger())
}

func price(v float64) *float64 { return &v }

func seedPark(t *testing.T, repo *mongoadapter.ParkRepository, maxCapacity int) {
	t.Helper()
	err := repo.InsertPark(context.Background(), domain.Park{
		ID:          "P01",
		Name:        "Bako National Park",
		Location:    "Sarawak",
		MaxCapacity: maxCapacity,
		TicketPrice: price(10),
		Schedules:   []domain.Schedule{{VisitDate: "2099-06-01"}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func occupancy(t *testing.T, repo *mongoadapter.ParkRepository, visitDate string) int {
	t.Helper()
	park, err := repo.GetPark(context.Background(), "P01")
	if err != nil {
		t.Fatal(err)
	}
	sched := park.FindSchedule(visitDate)
	if sched == nil {
		t.Fatalf("no schedule for %s", visitDate)
	}
	return sched.CurrentOccupancy
}

func TestParkRepository_TryBookSequential(t *testing.T) {
	repo := newParkRepo(t)
	seedPark(t, repo, 5)
	ctx := context.Background()

	outcome, err := repo.TryBook(ctx, "P01", "2099-06-01", 3)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != domain.BookingSucceeded {
		t.Fatalf("first booking: got %v, want succeeded", outcome)
	}

	outcome, err = repo.TryBook(ctx, "P01", "2099-06-01", 3)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != domain.BookingCapacityExceeded {
		t.Fatalf("overbooking: got %v, want capacity exceeded", outcome)
	}

	if got := occupancy(t, repo, "2099-06-01"); got != 3 {
		t.Errorf("occupancy = %d, want 3 (rejected booking leaves no trace)", got)
	}
}

func TestParkRepository_TryBookConcurrent(t *testing.T) {
	repo := newParkRepo(t)
	seedPark(t, repo, 5)
	ctx := context.Background()

	// Ten single-spot bookings racing for five spots. The conditional
	// update admits exactly five; the rest lose the compare and are
	// rejected without retry.
	const attempts = 10
	outcomes := make([]domain.BookOutcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := repo.TryBook(ctx, "P01", "2099-06-01", 1)
			if err != nil {
				t.Errorf("booking %d: %v", i, err)
				return
			}
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, o := range outcomes {
		switch o {
		case domain.BookingSucceeded:
			succeeded++
		case domain.BookingCapacityExceeded:
			rejected++
		}
	}
	if succeeded != 5 || rejected != 5 {
		t.Errorf("got %d successes and %d rejections, want 5 and 5", succeeded, rejected)
	}
	if got := occupancy(t, repo, "2099-06-01"); got != 5 {
		t.Errorf("final occupancy = %d, want exactly 5", got)
	}
}

func TestParkRepository_TryBookNotFound(t *testing.T) {
	repo := newParkRepo(t)
	seedPark(t, repo, 5)
	ctx := context.Background()

	outcome, err := repo.TryBook(ctx, "P99", "2099-06-01", 1)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != domain.BookingNotFound {
		t.Errorf("unknown park: got %v, want not found", outcome)
	}

	outcome, err = repo.TryBook(ctx, "P01", "2099-12-31", 1)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != domain.BookingNotFound {
		t.Errorf("unknown date: got %v, want not found", outcome)
	}
}

func TestParkRepository_EnsureSchedule(t *testing.T) {
	repo := newParkRepo(t)
	seedPark(t, repo, 5)
	ctx := context.Background()

	created, err := repo.EnsureSchedule(ctx, "P01", "2099-07-15")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected schedule to be created")
	}

	created, err = repo.EnsureSchedule(ctx, "P01", "2099-07-15")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second ensure must be a no-op")
	}
	if got := occupancy(t, repo, "2099-07-15"); got != 0 {
		t.Errorf("fresh schedule occupancy = %d, want 0", got)
	}

	_, err = repo.EnsureSchedule(ctx, "P99", "2099-07-15")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown park: got %v, want ErrNotFound", err)
	}
}

func TestParkRepository_DecrementFloorsAtZero(t *testing.T) {
	repo := newParkRepo(t)
	seedPark(t, repo, 5)
	ctx := context.Background()

	if outcome, _ := repo.TryBook(ctx, "P01", "2099-06-01", 2); outcome != domain.BookingSucceeded {
		t.Fatal("seeding occupancy failed")
	}
	if err := repo.DecrementOccupancy(ctx, "P01", "2099-06-01", 5); err != nil {
		t.Fatal(err)
	}
	if got := occupancy(t, repo, "2099-06-01"); got != 0 {
		t.Errorf("occupancy = %d, want 0 (never negative)", got)
	}

	err := repo.DecrementOccupancy(ctx, "P01", "2099-12-31", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown date: got %v, want ErrNotFound", err)
	}
}
