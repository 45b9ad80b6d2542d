// config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig holds runtime configuration for a simulation run.
type AppConfig struct {
	HallCallsPath  string   // cleaned hall-call CSV input
	OutputDir      string   // where CSV/LaTeX artifacts land
	PropertiesPath string   // optional key=value overrides
	KafkaBrokers   []string // empty disables the results feed
	ResultsTopic   string   // topic for published summary rows

	Fleet           int     // number of elevator cars
	LobbyFloor      int     // ground floor
	LobbyMax        int     // top floor of the Lobby zone
	MidMax          int     // top floor of the Mid zone
	SecondsPerFloor float64 // travel seconds per floor
	DoorTime        float64 // full door cycle, seconds
	DecisionMinutes int     // parking decision cadence
	HistorySlots    int     // recent-demand lookback, in slots

	Classifier string   // rule | kmeans
	Strategies []string // parking strategies to benchmark
	LongWait   float64  // absolute long-wait threshold, seconds
	AdaptiveLW bool     // derive per-window thresholds from the reference strategy's P95
	BurstCalls int      // shock scenario burst size
	BurstMins  int      // shock scenario burst span
	RandomSeed int64    // scenario rng seed
}

// LoadEnvAndFiles loads environment variables and the optional properties
// file. Properties override environment values.
func LoadEnvAndFiles() (*AppConfig, error) {
	cfg := &AppConfig{
		HallCallsPath:   getEnv("HALL_CALLS_PATH", "./data/hall_calls_clean.csv"),
		OutputDir:       getEnv("OUTPUT_DIR", "./outputs"),
		PropertiesPath:  getEnv("PROPERTIES_PATH", "./configs/parksim.properties"),
		KafkaBrokers:    splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		ResultsTopic:    getEnv("RESULTS_TOPIC", "parksim.results"),
		Fleet:           getEnvInt("FLEET", 8),
		LobbyFloor:      getEnvInt("LOBBY_FLOOR", 1),
		LobbyMax:        getEnvInt("LOBBY_MAX", 3),
		MidMax:          getEnvInt("MID_MAX", 8),
		SecondsPerFloor: getEnvFloat("SECONDS_PER_FLOOR", 1.5),
		DoorTime:        getEnvFloat("DOOR_TIME", 8.0),
		DecisionMinutes: getEnvInt("DECISION_MINUTES", 5),
		HistorySlots:    getEnvInt("HISTORY_SLOTS", 12),
		Classifier:      getEnv("CLASSIFIER", "rule"),
		Strategies:      splitAndTrim(getEnv("STRATEGIES", ""), ","),
		LongWait:        getEnvFloat("LONG_WAIT", 60.0),
		AdaptiveLW:      getEnv("ADAPTIVE_LONG_WAIT", "true") == "true",
		BurstCalls:      getEnvInt("BURST_CALLS", 60),
		BurstMins:       getEnvInt("BURST_MINUTES", 10),
		RandomSeed:      int64(getEnvInt("RANDOM_SEED", 20260101)),
	}

	if err := cfg.loadProperties(cfg.PropertiesPath); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

// ReloadProperties re-reads the properties file.
func (c *AppConfig) ReloadProperties() error {
	if err := c.loadProperties(c.PropertiesPath); err != nil {
		return err
	}
	return c.validate()
}

// loadProperties applies key=value overrides. A missing file is not an
// error unless the path was set explicitly via PROPERTIES_PATH.
func (c *AppConfig) loadProperties(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("PROPERTIES_PATH") == "" {
			return nil
		}
		return fmt.Errorf("cannot open properties file %s: %w", path, err)
	}
	defer file.Close()

	s := bufio.NewScanner(file)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		switch k {
		case "hall.calls.path":
			c.HallCallsPath = v
		case "output.dir":
			c.OutputDir = v
		case "kafka.brokers":
			c.KafkaBrokers = splitAndTrim(v, ",")
		case "results.topic":
			c.ResultsTopic = v
		case "fleet":
			setInt(&c.Fleet, v)
		case "lobby.floor":
			setInt(&c.LobbyFloor, v)
		case "lobby.max":
			setInt(&c.LobbyMax, v)
		case "mid.max":
			setInt(&c.MidMax, v)
		case "seconds.per.floor":
			setFloat(&c.SecondsPerFloor, v)
		case "door.time":
			setFloat(&c.DoorTime, v)
		case "decision.minutes":
			setInt(&c.DecisionMinutes, v)
		case "history.slots":
			setInt(&c.HistorySlots, v)
		case "classifier":
			c.Classifier = v
		case "strategies":
			c.Strategies = splitAndTrim(v, ",")
		case "long.wait":
			setFloat(&c.LongWait, v)
		case "adaptive.long.wait":
			c.AdaptiveLW = v == "true"
		case "burst.calls":
			setInt(&c.BurstCalls, v)
		case "burst.minutes":
			setInt(&c.BurstMins, v)
		case "random.seed":
			if i, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.RandomSeed = i
			}
		}
	}
	return s.Err()
}

func (c *AppConfig) validate() error {
	if c.Fleet < 1 {
		return errors.New("fleet must be at least 1")
	}
	if c.SecondsPerFloor <= 0 || c.DoorTime < 0 {
		return errors.New("seconds.per.floor must be positive and door.time non-negative")
	}
	if c.DecisionMinutes < 1 {
		return errors.New("decision.minutes must be at least 1")
	}
	if c.LobbyMax >= c.MidMax {
		return fmt.Errorf("zone bounds invalid: lobby.max %d must be below mid.max %d", c.LobbyMax, c.MidMax)
	}
	if c.Classifier != "rule" && c.Classifier != "kmeans" {
		return fmt.Errorf("unknown classifier %q (want rule or kmeans)", c.Classifier)
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}

func setInt(dst *int, v string) {
	if i, err := strconv.Atoi(v); err == nil {
		*dst = i
	}
}

func setFloat(dst *float64, v string) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
