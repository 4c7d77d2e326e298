package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS trips (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    start_epoch          REAL NOT NULL,
    end_epoch            REAL NOT NULL,
    destination          TEXT,
    budget               REAL,
    category             TEXT,
    duration_days        INTEGER
);

CREATE TABLE IF NOT EXISTS expenses (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id              TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
    title                TEXT,
    amount               REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_meta (
    key                  TEXT PRIMARY KEY,
    value                TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_trip ON expenses(trip_id);
`

// tripsQuery returns one row per trip with its expense total. Columns are left
// loosely typed so a producer writing a newer schema is still readable.
const tripsQuery = `SELECT
    t.id, t.name, t.start_epoch, t.end_epoch, t.destination, t.budget,
    t.category, t.duration_days,
    (SELECT SUM(e.amount) FROM expenses e WHERE e.trip_id = t.id)
    FROM trips t`
