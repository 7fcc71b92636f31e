package game

// LeaderboardEntry is one row of the daily leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Username      string `json:"username"`
	Mode          Mode   `json:"mode"`
	ElapsedTime   string `json:"time"`
	QuestionsUsed int    `json:"questions"`
}

// sample rows; there is no persisted leaderboard yet.
var sampleLeaderboard = []LeaderboardEntry{
	{Rank: 1, Username: "GeoMaster", Mode: ModeCountry, ElapsedTime: "2:34", QuestionsUsed: 8},
	{Rank: 2, Username: "MapExplorer", Mode: ModeCity, ElapsedTime: "3:12", QuestionsUsed: 12},
	{Rank: 3, Username: "WorldTraveler", Mode: ModeCountry, ElapsedTime: "3:45", QuestionsUsed: 10},
	{Rank: 4, Username: "CityHunter", Mode: ModeCity, ElapsedTime: "4:01", QuestionsUsed: 15},
	{Rank: 5, Username: "AtlasKing", Mode: ModeCountry, ElapsedTime: "4:23", QuestionsUsed: 14},
	{Rank: 6, Username: "Navigator", Mode: ModeCity, ElapsedTime: "4:56", QuestionsUsed: 16},
	{Rank: 7, Username: "Compass", Mode: ModeCountry, ElapsedTime: "5:12", QuestionsUsed: 18},
	{Rank: 8, Username: "Wanderer", Mode: ModeCity, ElapsedTime: "5:34", QuestionsUsed: 17},
	{Rank: 9, Username: "Explorer", Mode: ModeCountry, ElapsedTime: "5:47", QuestionsUsed: 19},
	{Rank: 10, Username: "Adventurer", Mode: ModeCity, ElapsedTime: "6:02", QuestionsUsed: 20},
}

// Leaderboard returns the rows for mode, or all rows when mode is empty.
// Ranks are the global ranks; filtering does not renumber them.
func Leaderboard(mode Mode) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(sampleLeaderboard))
	for _, e := range sampleLeaderboard {
		if mode == "" || e.Mode == mode {
			out = append(out, e)
		}
	}
	return out
}
