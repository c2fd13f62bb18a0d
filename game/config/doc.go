// Package config provides catalog management for the Marble Maze game.
//
// The config package handles:
//   - Discovering catalog files (.json, .yaml, .yml) in the configs directory
//   - Caching parsed and validated catalogs
//   - Choosing the default catalog
//
// Catalog Format:
//
// A catalog lists the boards of one game in play order. All boards share the
// catalog's rows and cols; each is a default tile kind plus sparse overrides:
//
//	name: classic
//	rows: 6
//	cols: 6
//	spawn: {row: 5, col: 0}
//	boards:
//	  - name: first roll
//	    default: plain
//	    overrides:
//	      - {row: 5, col: 5, kind: star}
//
// Usage:
//
//	manager, err := config.NewManager("configs", log.Logger)
//	if err != nil {
//		log.Fatal().Err(err).Msg("catalogs")
//	}
//
//	catalog, err := manager.LoadCatalog("classic")
//	catalogs, err := manager.ListCatalogs()
//
// The default is classic when present, otherwise the first valid catalog in
// the directory, otherwise a small built-in catalog.
package config
