package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/samuelfneumann/drivelearn/agent"
	"github.com/samuelfneumann/drivelearn/agent/lanekeeper"
	"github.com/samuelfneumann/drivelearn/agent/random"
	"github.com/samuelfneumann/drivelearn/environment/envconfig"
	"github.com/samuelfneumann/drivelearn/experiment"
	"github.com/samuelfneumann/drivelearn/experiment/tracker"
	"github.com/samuelfneumann/drivelearn/experiment/trackers"
	"github.com/samuelfneumann/drivelearn/utils/monitoring"
	"github.com/samuelfneumann/drivelearn/utils/progressbar"
)

func main() {
	configPath := flag.String("config", "", "environment config (.json), defaults if empty")
	agentType := flag.String("agent", string(agent.LaneKeeper), "agent type: Random or LaneKeeper")
	seed := flag.Uint64("seed", 192382, "seed of the environment and agent")
	steps := flag.Uint("steps", 100_000, "number of timesteps to run")
	returnPath := flag.String("returns", "returns.bin", "episodic returns output (gob)")
	lengthPath := flag.String("lengths", "lengths.bin", "episode lengths output (gob)")
	dbPath := flag.String("db", "episodes.db", "SQLite database of finished episodes")
	writeConfig := flag.String("write-config", "", "write the default environment config to this path and exit")
	quiet := flag.Bool("quiet", false, "mute per-episode logging")
	flag.Parse()

	if *writeConfig != "" {
		if err := envconfig.Default().Save(*writeConfig); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		return
	}

	if err := run(*configPath, agent.Type(*agentType), *seed, *steps,
		*returnPath, *lengthPath, *dbPath, *quiet); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, agentType agent.Type, seed uint64, steps uint,
	returnPath, lengthPath, dbPath string, quiet bool) error {
	envConf := envconfig.Default()
	if configPath != "" {
		var err error
		if envConf, err = envconfig.Load(configPath); err != nil {
			return err
		}
	}

	var agentConf agent.Config
	switch agentType {
	case agent.Random:
		agentConf = random.Config{}
	case agent.LaneKeeper:
		agentConf = lanekeeper.DefaultConfig()
	default:
		return fmt.Errorf("unknown agent type %q", agentType)
	}

	episodes, err := trackers.OpenEpisodes(dbPath)
	if err != nil {
		return err
	}
	defer episodes.Close()
	monitoring.Logf("recording run %v into %v", episodes.RunID(), dbPath)

	c := experiment.Config{
		Type:      experiment.OnlineExp,
		MaxSteps:  steps,
		EnvConf:   envConf,
		AgentConf: agent.NewTypedConfig(agentConf),
	}
	exp, err := c.CreateExp(seed, []tracker.Tracker{
		trackers.NewReturn(returnPath),
		trackers.NewEpisodeLength(lengthPath),
		episodes,
	})
	if err != nil {
		return err
	}

	if quiet {
		monitoring.SetLogger(nil)
	}
	exp.ShowProgress(progressbar.NewManualProgressBar(50, int(steps)))

	if err := exp.Run(); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}

	data, err := tracker.LoadData(returnPath)
	if err != nil {
		return err
	}
	if len(data) > 10 {
		data = data[len(data)-10:]
	}
	fmt.Println("last returns:", data)
	return nil
}
