package memory

import "github.com/riskibarqy/pickem/internal/domain/team"

// SeedTeams returns the league's clubs keyed by their feed abbreviation.
func SeedTeams() []team.Team {
	return []team.Team{
		{Slug: "ari", Place: "Arizona", Name: "Cardinals"},
		{Slug: "atl", Place: "Atlanta", Name: "Falcons"},
		{Slug: "bal", Place: "Baltimore", Name: "Ravens"},
		{Slug: "buf", Place: "Buffalo", Name: "Bills"},
		{Slug: "car", Place: "Carolina", Name: "Panthers"},
		{Slug: "chi", Place: "Chicago", Name: "Bears"},
		{Slug: "cin", Place: "Cincinnati", Name: "Bengals"},
		{Slug: "cle", Place: "Cleveland", Name: "Browns"},
		{Slug: "dal", Place: "Dallas", Name: "Cowboys"},
		{Slug: "den", Place: "Denver", Name: "Broncos"},
		{Slug: "det", Place: "Detroit", Name: "Lions"},
		{Slug: "gb", Place: "Green Bay", Name: "Packers"},
		{Slug: "hou", Place: "Houston", Name: "Texans"},
		{Slug: "ind", Place: "Indianapolis", Name: "Colts"},
		{Slug: "jac", Place: "Jacksonville", Name: "Jaguars"},
		{Slug: "kc", Place: "Kansas City", Name: "Chiefs"},
		{Slug: "mia", Place: "Miami", Name: "Dolphins"},
		{Slug: "min", Place: "Minnesota", Name: "Vikings"},
		{Slug: "ne", Place: "New England", Name: "Patriots"},
		{Slug: "no", Place: "New Orleans", Name: "Saints"},
		{Slug: "nyg", Place: "New York", Name: "Giants"},
		{Slug: "nyj", Place: "New York", Name: "Jets"},
		{Slug: "oak", Place: "Oakland", Name: "Raiders"},
		{Slug: "phi", Place: "Philadelphia", Name: "Eagles"},
		{Slug: "pit", Place: "Pittsburgh", Name: "Steelers"},
		{Slug: "sd", Place: "San Diego", Name: "Chargers"},
		{Slug: "sea", Place: "Seattle", Name: "Seahawks"},
		{Slug: "sf", Place: "San Francisco", Name: "49ers"},
		{Slug: "stl", Place: "St. Louis", Name: "Rams"},
		{Slug: "tb", Place: "Tampa Bay", Name: "Buccaneers"},
		{Slug: "ten", Place: "Tennessee", Name: "Titans"},
		{Slug: "was", Place: "Washington", Name: "Redskins"},
	}
}
