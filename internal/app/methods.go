package app

import (
	"fmt"

	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/method"
	"github.com/relabs-tech/spoofwatch/internal/orbit"
	"github.com/relabs-tech/spoofwatch/internal/watermap"
)

// buildMethods instantiates every method named in the config, loading
// the water map and TLE catalog at most once each. With calibrating set,
// methods that support it record their measurements for a later
// CalculateParameters pass.
func buildMethods(cfg *config.Config, calibrating bool) ([]method.Method, error) {
	var wm *watermap.Map
	var catalog *orbit.Catalog

	methods := make([]method.Method, 0, len(cfg.Methods))
	for _, name := range cfg.Methods {
		normalized, averaged := config.NormalizeMethodName(name)

		var m method.Method
		var err error
		switch normalized {
		case "multiplereceivers":
			m = &method.MultipleReceivers{
				Distances:               cfg.Options.Distances,
				DistanceRatioThresholds: cfg.Options.DistanceRatioThresholds,
				NewMeasurementWeight:    cfg.Options.NewMeasurementWeight,
				Calibrating:             calibrating,
			}
		case "physicalspeedlimit":
			m = &method.PhysicalSpeedLimit{
				MaxSpeed:    cfg.Options.MaxSpeed,
				Calibrating: calibrating,
			}
		case "physicalrateofturnlimit":
			m = &method.PhysicalRateOfTurnLimit{
				MaxRateOfTurn:                 cfg.Options.MaxRateOfTurn,
				MinSpeedToDetermineRateOfTurn: cfg.Options.MinSpeedToDetermineRateOfTurn,
				Calibrating:                   calibrating,
			}
		case "physicalheightlimit":
			m = &method.PhysicalHeightLimit{
				MinHeight:   cfg.Options.MinHeight,
				MaxHeight:   cfg.Options.MaxHeight,
				Calibrating: calibrating,
			}
		case "physicalenvironmentlimit":
			if wm == nil {
				wm, err = watermap.Load(cfg.WaterMapPath)
				if err != nil {
					return nil, err
				}
			}
			m = &method.PhysicalEnvironmentLimit{
				OnLand:      cfg.Options.OnLand,
				OnWater:     cfg.Options.OnWater,
				Map:         wm,
				Calibrating: calibrating,
			}
		case "orbitpositions":
			if catalog == nil {
				tles, err := orbit.LoadCatalog(cfg.TLECatalogPath)
				if err != nil {
					return nil, err
				}
				catalog = orbit.NewCatalog(tles)
			}
			m = &method.OrbitPositions{
				Catalog:                   catalog,
				MinElevation:              cfg.Options.MinElevation,
				AllowedAzimuthDeviation:   cfg.Options.AllowedAzimuthDeviation,
				AllowedElevationDeviation: cfg.Options.AllowedElevationDeviation,
			}
		case "timedrift":
			m = &method.TimeDrift{
				MaxClockDriftDeviation: cfg.Options.MaxClockDriftDeviation,
				Calibrating:            calibrating,
			}
		case "carriertonoisedensity":
			m = &method.CarrierToNoiseDensity{
				MinCN0: cfg.Options.MinCN0,
				MaxCN0: cfg.Options.MaxCN0,
			}
		default:
			return nil, fmt.Errorf("unknown method %q", name)
		}

		if averaged {
			m = method.NewAveraged(m, cfg.Options.AverageWindow)
		}
		methods = append(methods, m)
	}
	return methods, nil
}
