package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"virtual-drone/internal/camera"
	"virtual-drone/internal/sim"
)

func main() {
	drones := flag.Int("drones", 1, "Number of drones when no scenario file is given")
	duration := flag.Duration("duration", 30*time.Second, "How long to run (0 = until interrupted)")
	scenarioPath := flag.String("scenario", "", "JSON scenario file with world/drone/obstacle records")
	withCamera := flag.Bool("camera", true, "Attach a synthetic camera stream to the first drone")
	envFile := flag.String("env", ".env", "Environment file with config overrides")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Missing env file is fine; explicit overrides still come from the shell.
	if err := godotenv.Load(*envFile); err == nil {
		logger.Printf("loaded config overrides from %s", *envFile)
	}

	cfg := configFromEnv(sim.DefaultDroneConfig())

	multi, err := buildFleet(*scenarioPath, *drones, cfg, logger)
	if err != nil {
		logger.Fatalf("setup failed: %v", err)
	}

	var cam *camera.Stream
	if *withCamera {
		cam, err = camera.NewStream(envInt("CAMERA_WIDTH", 640), envInt("CAMERA_HEIGHT", 480), envInt("CAMERA_FPS", 30), logger)
		if err != nil {
			logger.Fatalf("camera setup failed: %v", err)
		}
		seedCameraObjects(cam)
		ids := multi.DroneIDs()
		if len(ids) > 0 {
			if s, ok := multi.Drone(ids[0]); ok {
				s.AttachCamera(cam)
			}
		}
		if err := cam.Start(); err != nil {
			logger.Fatalf("camera start failed: %v", err)
		}
	}

	if err := multi.StartAllSimulations(); err != nil {
		logger.Fatalf("start failed: %v", err)
	}

	for _, id := range multi.DroneIDs() {
		if s, ok := multi.Drone(id); ok {
			s.Takeoff()
		}
	}

	runUntilDone(*duration, multi, cam, logger)

	multi.StopAllSimulations()
	if cam != nil {
		cam.Stop()
	}
	printSummary(multi, cam, logger)
}

func buildFleet(scenarioPath string, drones int, cfg sim.DroneConfig, logger *log.Logger) (*sim.MultiDroneSimulator, error) {
	if scenarioPath != "" {
		data, err := os.ReadFile(scenarioPath)
		if err != nil {
			return nil, err
		}
		var sc sim.Scenario
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenarioPath, err)
		}
		return sc.Build(cfg, logger)
	}

	bounds := sim.Vec3{
		X: envFloat("WORLD_WIDTH", 10),
		Y: envFloat("WORLD_DEPTH", 10),
		Z: envFloat("WORLD_HEIGHT", 5),
	}
	world := sim.NewVirtualWorld(bounds, logger)
	multi := sim.NewMultiDroneSimulator(world, cfg, logger)
	for i := 0; i < drones; i++ {
		id := "drone-" + strconv.Itoa(i+1)
		pos := sim.Vec3{X: float64(i%2) * 1.5, Y: float64(i/2) * 1.5}
		if _, err := multi.AddDrone(id, pos); err != nil {
			return nil, err
		}
	}
	return multi, nil
}

func seedCameraObjects(cam *camera.Stream) {
	w := float64(cam.Width())
	h := float64(cam.Height())
	cam.AddObject(camera.ObjectSpec{
		Kind:     camera.ObjectPerson,
		Position: camera.Point{X: w * 0.3, Y: h * 0.6},
		Pattern:  camera.PatternLinear,
		Speed:    22,
		Params:   camera.PatternParams{Direction: camera.Point{X: 1, Y: 0.1}},
	})
	cam.AddObject(camera.ObjectSpec{
		Kind:     camera.ObjectVehicle,
		Position: camera.Point{X: w * 0.5, Y: h * 0.7},
		Pattern:  camera.PatternCircular,
		Speed:    40,
		Params:   camera.PatternParams{Radius: 80},
	})
	cam.AddObject(camera.ObjectSpec{
		Kind:     camera.ObjectBall,
		Position: camera.Point{X: w * 0.6, Y: h * 0.5},
		Pattern:  camera.PatternSineWave,
		Speed:    30,
		Params:   camera.PatternParams{Direction: camera.Point{X: 1}, Amplitude: 40, Frequency: 0.5},
	})
	cam.AddObject(camera.ObjectSpec{
		Kind:     camera.ObjectAnimal,
		Position: camera.Point{X: w * 0.4, Y: h * 0.8},
		Pattern:  camera.PatternRandomWalk,
		Params:   camera.PatternParams{MaxStep: 6},
	})
}

func runUntilDone(duration time.Duration, multi *sim.MultiDroneSimulator, cam *camera.Stream, logger *log.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}
	telemetry := time.NewTicker(2 * time.Second)
	defer telemetry.Stop()

	for {
		select {
		case <-sigs:
			logger.Printf("interrupted, shutting down")
			return
		case <-deadline:
			return
		case <-telemetry.C:
			printTelemetry(multi, cam, logger)
		}
	}
}

func printTelemetry(multi *sim.MultiDroneSimulator, cam *camera.Stream, logger *log.Logger) {
	for _, id := range multi.DroneIDs() {
		s, ok := multi.Drone(id)
		if !ok {
			continue
		}
		st := s.Statistics()
		logger.Printf("%s | %-10s | pos (%.1f, %.1f, %.1f) | bat %.1f%% | dist %.1fm | col %d",
			id, st.State, st.Position.X, st.Position.Y, st.Position.Z,
			st.BatteryLevel, st.TotalDistance, st.CollisionCount)
	}
	if cam != nil {
		if f := cam.GetFrame(); f != nil {
			logger.Printf("camera  | frame #%d %dx%d", f.Seq, f.Width, f.Height)
		}
	}
}

func printSummary(multi *sim.MultiDroneSimulator, cam *camera.Stream, logger *log.Logger) {
	stats := multi.GetAllStatistics()
	for _, id := range multi.DroneIDs() {
		st := stats[id]
		logger.Printf("%s: flight %.1fs, distance %.1fm, battery %.1f%%, collisions %d",
			id, st.TotalFlightTime, st.TotalDistance, st.BatteryLevel, st.CollisionCount)
	}
	if cam != nil {
		if f := cam.GetFrame(); f != nil {
			logger.Printf("camera: %d frames rendered", f.Seq)
		}
	}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// configFromEnv applies environment overrides to the drone tunables.
func configFromEnv(cfg sim.DroneConfig) sim.DroneConfig {
	if hz := envFloat("DRONESIM_TICK_RATE", 0); hz > 0 {
		cfg.SimulationDt = 1.0 / hz
	}
	if v := envFloat("DRONESIM_MAX_SPEED", 0); v > 0 {
		cfg.MaxSpeed = v
	}
	if v := envFloat("DRONESIM_MAX_VERTICAL_SPEED", 0); v > 0 {
		cfg.MaxVerticalSpeed = v
	}
	if v := envFloat("DRONESIM_TAKEOFF_ALTITUDE", 0); v > 0 {
		cfg.TakeoffAltitude = v
	}
	if v := envFloat("DRONESIM_BATTERY", 0); v > 0 {
		cfg.BatteryCapacity = v
	}
	return cfg
}
