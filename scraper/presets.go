package scraper

// Seasonal time tables of jwxt.hnvcc.edu.cn.
const (
	SeasonSummer = "summer"
	SeasonWinter = "winter"
)

// OptionSeason selects the seasonal time table in Payload.Options.
const OptionSeason = "season"

type slotTimes struct{ start, end string }

var morningAndEvening = map[int]slotTimes{
	1:  {"08:20", "09:05"},
	2:  {"09:15", "10:00"},
	3:  {"10:20", "11:05"},
	4:  {"11:15", "12:00"},
	9:  {"19:00", "19:45"},
	10: {"19:55", "20:40"},
	11: {"20:45", "21:30"},
	12: {"21:35", "22:20"},
}

var afternoons = map[string]map[int]slotTimes{
	SeasonSummer: {
		5: {"14:00", "14:45"},
		6: {"14:55", "15:40"},
		7: {"15:55", "16:40"},
		8: {"16:50", "17:35"},
	},
	SeasonWinter: {
		5: {"14:30", "15:15"},
		6: {"15:25", "16:10"},
		7: {"16:25", "17:10"},
		8: {"17:20", "18:05"},
	},
}

// SeasonSlots returns the twelve preset periods of a season, or nil for an unknown season.
func SeasonSlots(season string) []Fragment {
	afternoon, ok := afternoons[season]
	if !ok {
		return nil
	}
	slots := make([]Fragment, 0, 12)
	for n := 1; n <= 12; n++ {
		times, ok := afternoon[n]
		if !ok {
			times = morningAndEvening[n]
		}
		slots = append(slots, Fragment{
			FieldNumber:    n,
			FieldStartTime: times.start,
			FieldEndTime:   times.end,
		})
	}
	return slots
}
