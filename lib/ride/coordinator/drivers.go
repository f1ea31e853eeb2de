package coordinator

import (
	"context"
	"strings"

	"github.com/ValentinKolb/dRide/lib/ride/events"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/google/uuid"
)

// Drivers manages the drivers of all regions
type Drivers struct {
	c *Coordinator
}

func (c *Coordinator) Drivers() *Drivers {
	return &Drivers{c: c}
}

// Create stores a new driver. A missing id is generated and a missing status
// defaults to AVAILABLE. Available drivers are added to the geo index.
func (d *Drivers) Create(ctx context.Context, region model.Region, driver model.Driver) (*model.Driver, error) {
	if strings.TrimSpace(driver.Name) == "" {
		return nil, model.Invalid("driver name must not be empty")
	}
	if err := model.ValidateLocation(driver.Latitude, driver.Longitude); err != nil {
		return nil, err
	}
	switch driver.Status {
	case "":
		driver.Status = model.DriverAvailable
	case model.DriverOnRide:
		return nil, model.Invalid("a driver can not be created %s", model.DriverOnRide)
	}
	if driver.ID == "" {
		driver.ID = uuid.NewString()
	} else if _, ok, err := d.c.drivers.FindByID(ctx, region, driver.ID, model.Strong); err != nil {
		return nil, err
	} else if ok {
		return nil, model.Conflict("driver %s already exists", driver.ID)
	}

	if err := d.c.drivers.Save(ctx, region, &driver); err != nil {
		return nil, err
	}
	if driver.Status == model.DriverAvailable {
		if err := d.c.drivers.AddToGeoIndex(ctx, region, driver.ID, driver.Point()); err != nil {
			return nil, err
		}
	}
	Logger.Infof("created driver %s in %s", driver.ID, region)
	return &driver, nil
}

func (d *Drivers) Get(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Driver, error) {
	driver, ok, err := d.c.drivers.FindByID(ctx, region, id, consistency)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("driver %s not found", id)
	}
	return driver, nil
}

func (d *Drivers) List(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Driver, error) {
	return d.c.drivers.FindAll(ctx, region, consistency)
}

// UpdateLocation moves a driver. The hash entry and the geo index are written
// one after another.
func (d *Drivers) UpdateLocation(ctx context.Context, region model.Region, id string, latitude, longitude float64) (*model.Driver, error) {
	if err := model.ValidateLocation(latitude, longitude); err != nil {
		return nil, err
	}
	return d.c.drivers.UpdateLocation(ctx, region, id, latitude, longitude)
}

// SetStatus switches a driver between AVAILABLE and OFFLINE. ON_RIDE is only
// set by booking a ride and a driver on a ride can not change its status.
func (d *Drivers) SetStatus(ctx context.Context, region model.Region, id string, status model.DriverStatus) (*model.Driver, error) {
	if status != model.DriverAvailable && status != model.DriverOffline {
		return nil, model.Invalid("driver status can only be set to %s or %s", model.DriverAvailable, model.DriverOffline)
	}

	driver, ok, err := d.c.drivers.FindByID(ctx, region, id, model.Strong)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("driver %s not found", id)
	}
	if driver.Status == model.DriverOnRide {
		return nil, model.Conflict("driver %s is on a ride", id)
	}

	driver.Status = status
	if err := d.c.drivers.Save(ctx, region, driver); err != nil {
		return nil, err
	}

	ev := events.Event{Region: region.String(), DriverID: driver.ID, Status: string(status)}
	if status == model.DriverOffline {
		err = d.c.drivers.RemoveFromGeoIndex(ctx, region, driver.ID)
		ev.Type = events.DriverOffline
	} else {
		err = d.c.drivers.AddToGeoIndex(ctx, region, driver.ID, driver.Point())
		ev.Type = events.DriverAvailable
	}
	if err != nil {
		return nil, err
	}
	d.c.publish(ctx, ev)
	return driver, nil
}

// Delete removes a driver and its geo index member
func (d *Drivers) Delete(ctx context.Context, region model.Region, id string) error {
	if _, err := d.Get(ctx, region, id, model.Strong); err != nil {
		return err
	}
	return d.c.drivers.Delete(ctx, region, id)
}
