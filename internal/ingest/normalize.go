package ingest

import "valorant-companion/internal/catalog"

// Keys kept when a nested reference is projected down to a display stub.
var refKeys = []string{"id", "name", "image_url"}

// normalizePlayers trims each player's current_team to the reference stub
// the mobile client renders. Players without a team pass through untouched.
func normalizePlayers(players []catalog.Record) []catalog.Record {
	out := make([]catalog.Record, len(players))
	for i, player := range players {
		p := player.Clone()
		if team := p.Sub("current_team"); team != nil {
			p["current_team"] = team.Project(refKeys...)
		}
		out[i] = p
	}
	return out
}

// normalizeMatches projects the nested opponent, tournament, and league
// references down to stubs. Other opponent fields (score and friends) stay.
func normalizeMatches(matches []catalog.Record) []catalog.Record {
	out := make([]catalog.Record, len(matches))
	for i, match := range matches {
		m := match.Clone()

		if opponents := m.Slice("opponents"); opponents != nil {
			trimmed := make([]any, len(opponents))
			for j, entry := range opponents {
				e := entry.Clone()
				if opp := e.Sub("opponent"); opp != nil {
					e["opponent"] = opp.Project(refKeys...)
				}
				trimmed[j] = e
			}
			m["opponents"] = trimmed
		}
		if tournament := m.Sub("tournament"); tournament != nil {
			m["tournament"] = tournament.Project(refKeys...)
		}
		if league := m.Sub("league"); league != nil {
			m["league"] = league.Project(refKeys...)
		}
		out[i] = m
	}
	return out
}
