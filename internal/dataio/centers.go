package dataio

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"

	"stroke-triage/internal/center"
)

var centerColumns = []string{
	"CenterID", "CenterType",
	"DTN_1st", "DTN_Median", "DTN_3rd",
	"DTP_1st", "DTP_Median", "DTP_3rd",
	"destinationID", "transfer_time",
}

// ReadCenters loads the hospital list. Primary centers come first, then
// comprehensive centers, each in file order. With useDefaultTimes the
// recorded delay quartiles are ignored in favour of national defaults.
func ReadCenters(path string, useDefaultTimes bool) ([]center.Center, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("CenterID", "CenterType"); err != nil {
		return nil, err
	}
	if !useDefaultTimes {
		if err := t.require("DTN_1st", "DTN_Median", "DTN_3rd"); err != nil {
			return nil, err
		}
	}

	var primaries, comprehensives []center.Center
	kinds := make(map[string]center.Kind)
	for i, row := range t.rows {
		line := i + 2
		cid := id(t.cell(row, "CenterID"))
		kind, err := center.ParseKind(t.cell(row, "CenterType"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if _, dup := kinds[cid]; dup {
			return nil, fmt.Errorf("%s line %d: %w: duplicate id %s", path, line, center.ErrInvalidCenter, cid)
		}
		kinds[cid] = kind

		opts := []center.Option{center.WithName("Center "+cid, cid)}
		if !useDefaultTimes {
			dtn, err := t.quartiles(row, "DTN", line)
			if err != nil {
				return nil, err
			}
			opts = append(opts, center.WithDTN(dtn))
			if kind == center.Comprehensive {
				dtp, err := t.quartiles(row, "DTP", line)
				if err != nil {
					return nil, err
				}
				opts = append(opts, center.WithDTP(dtp))
			}
		}

		if kind == center.Primary {
			if dest := t.cell(row, "destinationID"); dest != "" {
				minutes := math.NaN()
				if t.cell(row, "transfer_time") != "" {
					if minutes, err = t.float(row, "transfer_time", line); err != nil {
						return nil, err
					}
				}
				opts = append(opts, center.WithTransfer(id(dest), minutes))
			}
			c, err := center.NewPrimary(cid, opts...)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, line, err)
			}
			primaries = append(primaries, c)
			continue
		}

		c, err := center.NewComprehensive(cid, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		comprehensives = append(comprehensives, c)
	}

	for _, p := range primaries {
		if p.Transfer == nil {
			continue
		}
		if k, ok := kinds[p.Transfer.DestinationID]; !ok || k != center.Comprehensive {
			return nil, fmt.Errorf("%s: %w: center %s transfers to %s, which is not a listed comprehensive center",
				path, center.ErrInvalidCenter, p.ID, p.Transfer.DestinationID)
		}
	}
	return append(primaries, comprehensives...), nil
}

func (t *table) quartiles(row []string, prefix string, line int) (center.TimeDistribution, error) {
	var q [3]float64
	for i, suffix := range []string{"_1st", "_Median", "_3rd"} {
		v, err := t.float(row, prefix+suffix, line)
		if err != nil {
			return center.TimeDistribution{}, err
		}
		q[i] = v
	}
	return center.TimeDistribution{FirstQuartile: q[0], Median: q[1], ThirdQuartile: q[2]}, nil
}

// WriteCenters writes centers in the layout ReadCenters accepts.
func WriteCenters(path string, centers []center.Center) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(centerColumns); err != nil {
		return err
	}
	for _, c := range centers {
		rec := []string{c.ID, c.Kind.String(),
			formatFloat(c.DTN.FirstQuartile), formatFloat(c.DTN.Median), formatFloat(c.DTN.ThirdQuartile),
			"", "", "", "", ""}
		if c.DTP != nil {
			rec[5], rec[6], rec[7] = formatFloat(c.DTP.FirstQuartile), formatFloat(c.DTP.Median), formatFloat(c.DTP.ThirdQuartile)
		}
		if c.Transfer != nil {
			rec[8] = c.Transfer.DestinationID
			if !math.IsNaN(c.Transfer.Minutes) {
				rec[9] = formatFloat(c.Transfer.Minutes)
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
