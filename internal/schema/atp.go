package schema

// ATPMatches is the column layout of the ATP match results CSV: tournament
// metadata, winner and loser identity, match statistics and rankings.
var ATPMatches = MustNew([]Column{
	{Name: "tourney_id", Type: String, Nullable: true},
	{Name: "tourney_name", Type: String, Nullable: true},
	{Name: "surface", Type: String, Nullable: true},
	{Name: "draw_size", Type: Integer, Nullable: true},
	{Name: "tourney_level", Type: String, Nullable: true},
	{Name: "tourney_date", Type: Integer, Nullable: true},
	{Name: "match_num", Type: Integer, Nullable: true},
	{Name: "winner_id", Type: Integer, Nullable: true},
	{Name: "winner_seed", Type: Integer, Nullable: true},
	{Name: "winner_entry", Type: String, Nullable: true},
	{Name: "winner_name", Type: String, Nullable: true},
	{Name: "winner_hand", Type: String, Nullable: true},
	{Name: "winner_ht", Type: Integer, Nullable: true},
	{Name: "winner_ioc", Type: String, Nullable: true},
	{Name: "winner_age", Type: Float, Nullable: true},
	{Name: "loser_id", Type: Integer, Nullable: true},
	{Name: "loser_seed", Type: Integer, Nullable: true},
	{Name: "loser_entry", Type: String, Nullable: true},
	{Name: "loser_name", Type: String, Nullable: true},
	{Name: "loser_hand", Type: String, Nullable: true},
	{Name: "loser_ht", Type: Integer, Nullable: true},
	{Name: "loser_ioc", Type: String, Nullable: true},
	{Name: "loser_age", Type: Float, Nullable: true},
	{Name: "score", Type: String, Nullable: true},
	{Name: "best_of", Type: Integer, Nullable: true},
	{Name: "round", Type: String, Nullable: true},
	{Name: "minutes", Type: Integer, Nullable: true},
	{Name: "w_ace", Type: Integer, Nullable: true},
	{Name: "w_df", Type: Integer, Nullable: true},
	{Name: "w_svpt", Type: Integer, Nullable: true},
	{Name: "w_1stIn", Type: Integer, Nullable: true},
	{Name: "w_1stWon", Type: Integer, Nullable: true},
	{Name: "w_2ndWon", Type: Integer, Nullable: true},
	{Name: "w_SvGms", Type: Integer, Nullable: true},
	{Name: "w_bpSaved", Type: Integer, Nullable: true},
	{Name: "w_bpFaced", Type: Integer, Nullable: true},
	{Name: "l_ace", Type: Integer, Nullable: true},
	{Name: "l_df", Type: Integer, Nullable: true},
	{Name: "l_svpt", Type: Integer, Nullable: true},
	{Name: "l_1stIn", Type: Integer, Nullable: true},
	{Name: "l_1stWon", Type: Integer, Nullable: true},
	{Name: "l_2ndWon", Type: Integer, Nullable: true},
	{Name: "l_SvGms", Type: Integer, Nullable: true},
	{Name: "l_bpSaved", Type: Integer, Nullable: true},
	{Name: "l_bpFaced", Type: Integer, Nullable: true},
	{Name: "winner_rank", Type: Integer, Nullable: true},
	{Name: "winner_rank_points", Type: Integer, Nullable: true},
	{Name: "loser_rank", Type: Integer, Nullable: true},
	{Name: "loser_rank_points", Type: Integer, Nullable: true},
}...)
