package storage

// Timestamps are stored as INTEGER epoch milliseconds, booleans as 0/1.
// The review-log tables are append-only: rows are never updated or deleted.
const schema = `
CREATE TABLE IF NOT EXISTS card (
    id TEXT PRIMARY KEY,
    reference TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    due INTEGER NOT NULL,
    last_review INTEGER,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed_days INTEGER NOT NULL DEFAULT 0,
    scheduled_days INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 1: Learning, 2: Review, 3: Relearning
    dismissed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS card_review (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL,
    due INTEGER NOT NULL,
    review INTEGER NOT NULL,
    stability REAL NOT NULL,
    difficulty REAL NOT NULL,
    elapsed_days INTEGER NOT NULL,
    last_elapsed_days INTEGER NOT NULL,
    scheduled_days INTEGER NOT NULL,
    rating INTEGER NOT NULL,
    state INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES card(id)
);

-- due is NULL exactly when dismissed = 1. priority is the display value
-- scaled by ten (10-50). parent links an extracted snippet to its origin.
CREATE TABLE IF NOT EXISTS snippet (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT NOT NULL,
    due INTEGER,
    dismissed INTEGER NOT NULL DEFAULT 0,
    priority INTEGER NOT NULL DEFAULT 30,
    parent INTEGER,

    FOREIGN KEY(parent) REFERENCES snippet(id)
);

CREATE TABLE IF NOT EXISTS snippet_review (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snippet_id INTEGER NOT NULL,
    review_time INTEGER NOT NULL,

    FOREIGN KEY(snippet_id) REFERENCES snippet(id)
);

CREATE TABLE IF NOT EXISTS article (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT NOT NULL,
    due INTEGER,
    dismissed INTEGER NOT NULL DEFAULT 0,
    priority INTEGER NOT NULL DEFAULT 30
);

CREATE TABLE IF NOT EXISTS article_review (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id INTEGER NOT NULL,
    review_time INTEGER NOT NULL,

    FOREIGN KEY(article_id) REFERENCES article(id)
);

-- Registered bulk-import sources: a local directory or a git repository.
CREATE TABLE IF NOT EXISTS source (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL, -- 'local' or 'git'
    last_synced INTEGER
);
`
