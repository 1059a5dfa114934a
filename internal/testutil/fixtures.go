package testutil

import (
	"github.com/target/launchlens/internal/domain/model"
)

// LaunchRecord builds a launch record the way the ingest layer would store it.
func LaunchRecord(year int, sector, country, company string) model.Record {
	return model.Record{
		"Year":              float64(year),
		"Sector":            sector,
		"Country of Launch": country,
		"Company Name":      company,
	}
}

// CrossoverRecords returns a dataset where private launches overtake state
// launches in 2001: (2000, State) x2, (2000, Private) x1, (2001, Private) x3, (2001, State) x1.
func CrossoverRecords() []model.Record {
	return []model.Record{
		LaunchRecord(2000, "State", "Russia", "Roscosmos"),
		LaunchRecord(2000, "State", "USA", "NASA"),
		LaunchRecord(2000, "Private", "USA", "SpaceX"),
		LaunchRecord(2001, "Private", "USA", "SpaceX"),
		LaunchRecord(2001, "Private", "USA", "Rocket Lab"),
		LaunchRecord(2001, "Private", "New Zealand", "Rocket Lab"),
		LaunchRecord(2001, "State", "China", "CASC"),
	}
}

// StateLedRecords returns a dataset where private launches never exceed state
// launches: (2000, State) x2, (2000, Private) x1, (2001, State) x1, (2001, Private) x1.
func StateLedRecords() []model.Record {
	return []model.Record{
		LaunchRecord(2000, "State", "Russia", "Roscosmos"),
		LaunchRecord(2000, "State", "USA", "NASA"),
		LaunchRecord(2000, "Private", "USA", "SpaceX"),
		LaunchRecord(2001, "State", "China", "CASC"),
		LaunchRecord(2001, "Private", "USA", "SpaceX"),
	}
}
