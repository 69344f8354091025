package config

// Embedded device profiles. Keys are device IDs, values raw JSON. Each
// top-level key becomes a retained message on config/<key>.

const cfgDesk = `{
  "input":     {"settle_ms": 80, "poll_ms": 2},
  "buttons":   {"period_ms": 2, "stable_samples": 5, "invert": true},
  "drive":     {"period_ms": 10},
  "sensing":   {"period_ms": 10, "samples": 16},
  "opmode": {
    "refresh_ms": 100,
    "height_tick_ms": 10,
    "standstill_mm": 2,
    "movement_mm": 18,
    "ladder_steps": [1, 10, 50, 100],
    "ladder_dwell_ms": 2000,
    "hold_repeat_ms": 100,
    "first_measurement_ms": 2000
  },
  "storage":   {"offset": 0, "address": 80, "page_size": 32, "size": 4096},
  "heartbeat": {"interval": 10, "stall_beats": 3},
  "bridge":    {"transport": {"type": "uart", "uart": {"baud": 115200, "rx_pin": 1, "tx_pin": 0}}}
}`

const cfgSim = `{
  "input":     {"settle_ms": 80, "poll_ms": 2},
  "buttons":   {"period_ms": 2, "stable_samples": 3},
  "drive":     {"period_ms": 10},
  "sensing":   {"period_ms": 10, "samples": 5},
  "opmode":    {"first_measurement_ms": 500},
  "storage":   {"offset": 0, "address": 87, "page_size": 32, "size": 4096},
  "heartbeat": {"interval": 5, "stall_beats": 3}
}`

var embeddedConfigs = map[string][]byte{
	"desk": []byte(cfgDesk),
	"sim":  []byte(cfgSim),
}
