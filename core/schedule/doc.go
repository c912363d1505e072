package schedule

// Package schedule turns forecast hourly prices and upcoming trips into
// per-hour charge decisions. Reserve commits the cheapest free hours before
// a deadline and blocks the hours the vehicle is away; Planner folds all
// trips in departure order over a shared uncommitted-energy pool.
