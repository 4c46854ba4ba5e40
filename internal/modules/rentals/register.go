package rentals

import (
	"database/sql"
	"net/http"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/modules/rentals/controller"
	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/repository"
	"bikeshare-dashboard/internal/modules/rentals/service"
	"bikeshare-dashboard/internal/mqtt"
)

// RegisterFeature mounts the rentals routes on mux. A non-nil subscriber
// feeds incoming rental messages into svc.
func RegisterFeature(mux *http.ServeMux, svc *service.Service, subscriber mqtt.MQTTSubscriber) {
	if subscriber != nil {
		svc.Register(subscriber)
	}
	rentalsController := controller.NewRentalsController(svc)
	rentalsController.RegisterRoutes(mux)
}

// NewSource returns the dataset provider for cfg.DataSource. The repository
// is nil for the csv source.
func NewSource(cfg config.Config, db *sql.DB) (dataset.Provider, repository.RentalsRepository, error) {
	if cfg.DataSource == config.DataSourceSQLite {
		rentalsRepository := repository.NewRepository(db)
		return dataset.NewRecordProvider(rentalsRepository), rentalsRepository, nil
	}
	ds, err := dataset.LoadFiles(cfg.DayCSVPath, cfg.HourCSVPath)
	if err != nil {
		return nil, nil, err
	}
	return dataset.NewStaticProvider(ds), nil, nil
}
