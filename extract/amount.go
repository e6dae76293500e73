package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/use-agent/dailyclaim/config"
)

// FormatUnits converts raw backend units into a currency string with
// exactly two decimals, rounding half away from zero. A non-positive scale
// is treated as 1.
func FormatUnits(raw, scale int64, symbol string) string {
	if scale <= 0 {
		scale = 1
	}
	num := raw * 100
	cents := num / scale
	if rem := num % scale; 2*absInt(rem) >= scale {
		if num < 0 {
			cents--
		} else {
			cents++
		}
	}

	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// rawUnits converts a JSON number to whole units.
func rawUnits(f float64) int64 {
	return int64(math.Round(f))
}

var patternCache sync.Map // pattern string -> *regexp.Regexp

func compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// ParseReward returns the first amount in text that matches the profile's
// reward pattern and lies within [Min, Max]. A zero Max means no upper bound.
func ParseReward(text string, ra config.RewardAmount) (float64, bool) {
	if ra.Pattern == "" {
		return 0, false
	}
	re, err := compiled(ra.Pattern)
	if err != nil {
		return 0, false
	}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if v < ra.Min || (ra.Max > 0 && v > ra.Max) {
			continue
		}
		return v, true
	}
	return 0, false
}

// FormatReward renders a parsed reward amount.
func FormatReward(v float64, ra config.RewardAmount) string {
	format := ra.Format
	if format == "" {
		format = "%.2f"
	}
	return fmt.Sprintf(format, v)
}
