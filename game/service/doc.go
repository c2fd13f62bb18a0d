// Package service provides the business logic layer for the Marble Maze game.
//
// The service package implements:
//   - Multi-session game management
//   - Direction commands and manual clock steps
//   - The shared clock step used by the server ticker
//   - Hints computed by the solver
//   - Catalog listing and loading
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages catalog loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/
// terminal) and the game engine. A Session wraps one engine behind its own
// mutex; Tick, Command, Snapshot and Reset are the only ways in, so each
// tick observes a consistent marble, board and catalog.
//
// Usage:
//
//	sessionMgr := session.NewManager(log.Logger)
//	configMgr, _ := config.NewManager("configs", log.Logger)
//	gameService := service.NewGameService(sessionMgr, configMgr, engine.DefaultSettings())
//
//	info, err := gameService.CreateSession(ctx, service.CreateOptions{CatalogID: "classic", Manual: true})
//	if err != nil {
//		log.Fatal().Err(err).Msg("create session")
//	}
//
//	gameService.Direct(ctx, info.ID, "right")
//	result, err := gameService.Step(ctx, info.ID, 100, true)
//
// Clock Modes:
//
// Sessions created with Manual set only advance through Step. All others are
// advanced once per server tick by AdvanceRunning, and Step refuses them with
// ErrClockDriven. A clock-driven session whose tick fails is reported once
// and then left alone until Reset.
package service
