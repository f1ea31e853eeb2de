package coordinator

import (
	"context"
	"strings"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/google/uuid"
)

// Passengers manages the passengers of all regions
type Passengers struct {
	c *Coordinator
}

func (c *Coordinator) Passengers() *Passengers {
	return &Passengers{c: c}
}

// Create stores a new passenger, the status defaults to ONLINE
func (p *Passengers) Create(ctx context.Context, region model.Region, passenger model.Passenger) (*model.Passenger, error) {
	if strings.TrimSpace(passenger.Name) == "" {
		return nil, model.Invalid("passenger name must not be empty")
	}
	if err := model.ValidateLocation(passenger.Latitude, passenger.Longitude); err != nil {
		return nil, err
	}
	switch passenger.Status {
	case "":
		passenger.Status = model.PassengerOnline
	case model.PassengerOnRide:
		return nil, model.Invalid("a passenger can not be created %s", model.PassengerOnRide)
	}
	if passenger.ID == "" {
		passenger.ID = uuid.NewString()
	} else if _, ok, err := p.c.passengers.FindByID(ctx, region, passenger.ID, model.Strong); err != nil {
		return nil, err
	} else if ok {
		return nil, model.Conflict("passenger %s already exists", passenger.ID)
	}

	if err := p.c.passengers.Save(ctx, region, &passenger); err != nil {
		return nil, err
	}
	Logger.Infof("created passenger %s in %s", passenger.ID, region)
	return &passenger, nil
}

func (p *Passengers) Get(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Passenger, error) {
	passenger, ok, err := p.c.passengers.FindByID(ctx, region, id, consistency)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("passenger %s not found", id)
	}
	return passenger, nil
}

func (p *Passengers) List(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Passenger, error) {
	return p.c.passengers.FindAll(ctx, region, consistency)
}

func (p *Passengers) Delete(ctx context.Context, region model.Region, id string) error {
	if _, err := p.Get(ctx, region, id, model.Strong); err != nil {
		return err
	}
	return p.c.passengers.Delete(ctx, region, id)
}
