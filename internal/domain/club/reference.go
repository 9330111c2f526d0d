package club

// premierLeagueClubs covers the 2025/26 Premier League plus the clubs
// relegated at the end of 2024/25, whose names still appear in results feeds.
var premierLeagueClubs = []Club{
	{Name: "AFC Bournemouth", Aliases: []string{"Bournemouth", "AFC B'mouth", "BOU", "Cherries"}},
	{Name: "Arsenal", Aliases: []string{"Arsenal FC", "ARS", "The Arsenal", "Gunners"}},
	{Name: "Aston Villa", Aliases: []string{"Villa", "Aston Villa FC", "AVL"}},
	{Name: "Brentford", Aliases: []string{"Brentford FC", "BRE", "Bees"}},
	{Name: "Brighton & Hove Albion", Aliases: []string{"Brighton", "Brighton and Hove Albion", "Brighton & Hove", "Brighton Hove Albion", "BHA", "BRI"}},
	{Name: "Burnley", Aliases: []string{"Burnley FC", "BUR", "Clarets"}},
	{Name: "Chelsea", Aliases: []string{"Chelsea FC", "CHE", "Blues"}},
	{Name: "Crystal Palace", Aliases: []string{"Palace", "C Palace", "Crystal Palace FC", "CRY"}},
	{Name: "Everton", Aliases: []string{"Everton FC", "EVE", "Toffees"}},
	{Name: "Fulham", Aliases: []string{"Fulham FC", "FUL", "Cottagers"}},
	{Name: "Ipswich Town", Aliases: []string{"Ipswich", "IPS"}},
	{Name: "Leeds United", Aliases: []string{"Leeds", "Leeds Utd", "LEE"}},
	{Name: "Leicester City", Aliases: []string{"Leicester", "LEI", "Foxes"}},
	{Name: "Liverpool", Aliases: []string{"Liverpool FC", "LIV", "Reds"}},
	{Name: "Manchester City", Aliases: []string{"Man City", "Man. City", "Manchester City FC", "MCI", "Citizens"}},
	{Name: "Manchester United", Aliases: []string{"Man Utd", "Man United", "Man. United", "Manchester Utd", "Manchester United FC", "MUN", "Man U"}},
	{Name: "Newcastle United", Aliases: []string{"Newcastle", "Newcastle Utd", "NEW", "Magpies"}},
	{Name: "Nottingham Forest", Aliases: []string{"Nott'm Forest", "Nottm Forest", "Nott Forest", "Forest", "NFO"}},
	{Name: "Southampton", Aliases: []string{"Southampton FC", "SOU", "Saints"}},
	{Name: "Sunderland", Aliases: []string{"Sunderland AFC", "SUN", "Black Cats"}},
	{Name: "Tottenham Hotspur", Aliases: []string{"Tottenham", "Spurs", "Tottenham Hotspur FC", "TOT"}},
	{Name: "West Ham United", Aliases: []string{"West Ham", "West Ham Utd", "WHU", "Hammers"}},
	{Name: "Wolverhampton Wanderers", Aliases: []string{"Wolves", "Wolverhampton", "WOL"}},
}

var premierLeagueRivalries = []Rivalry{
	{Name: "North London derby", Clubs: [2]string{"Arsenal", "Tottenham Hotspur"}},
	{Name: "Manchester derby", Clubs: [2]string{"Manchester City", "Manchester United"}},
	{Name: "Merseyside derby", Clubs: [2]string{"Liverpool", "Everton"}},
	{Name: "Tyne-Wear derby", Clubs: [2]string{"Newcastle United", "Sunderland"}},
	{Name: "West London derby", Clubs: [2]string{"Chelsea", "Fulham"}},
	{Name: "West London derby", Clubs: [2]string{"Brentford", "Fulham"}},
	{Name: "West London derby", Clubs: [2]string{"Brentford", "Chelsea"}},
	{Name: "London derby", Clubs: [2]string{"Chelsea", "Tottenham Hotspur"}},
	{Name: "London derby", Clubs: [2]string{"Arsenal", "Chelsea"}},
	{Name: "London derby", Clubs: [2]string{"West Ham United", "Tottenham Hotspur"}},
	{Name: "M23 derby", Clubs: [2]string{"Brighton & Hove Albion", "Crystal Palace"}},
	{Name: "East Midlands derby", Clubs: [2]string{"Nottingham Forest", "Leicester City"}},
	{Name: "South Coast derby", Clubs: [2]string{"Southampton", "AFC Bournemouth"}},
	{Name: "Roses rivalry", Clubs: [2]string{"Leeds United", "Manchester United"}},
}

// DefaultPremierLeague builds a fresh table from the bundled reference data.
func DefaultPremierLeague() (*AliasTable, error) {
	return NewAliasTable(premierLeagueClubs, premierLeagueRivalries)
}
