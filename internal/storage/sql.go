package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions
(
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id      TEXT      NOT NULL UNIQUE,
    device_id       TEXT      NOT NULL,
    mode            TEXT      NOT NULL,
    difficulty      TEXT      NOT NULL,
    config          TEXT,
    status          TEXT      NOT NULL,
    error           TEXT,
    start_time      TIMESTAMP NOT NULL,
    end_time        TIMESTAMP,
    hits            INTEGER   NOT NULL DEFAULT 0,
    misses          INTEGER   NOT NULL DEFAULT 0,
    accuracy        REAL      NOT NULL DEFAULT 0,
    avg_reaction_ms REAL      NOT NULL DEFAULT 0,
    score           INTEGER   NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_device ON sessions (device_id);

CREATE TABLE IF NOT EXISTS progress
(
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id      TEXT      NOT NULL,
    timestamp       TIMESTAMP NOT NULL,
    hits            INTEGER   NOT NULL,
    misses          INTEGER   NOT NULL,
    accuracy        REAL      NOT NULL,
    avg_reaction_ms REAL      NOT NULL,
    score           INTEGER   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_progress_session ON progress (session_id);
`

const insertSessionSQL = `
INSERT INTO sessions (session_id,
                      device_id,
                      mode,
                      difficulty,
                      config,
                      status,
                      error,
                      start_time,
                      end_time,
                      hits,
                      misses,
                      accuracy,
                      avg_reaction_ms,
                      score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertProgressSQL = `
INSERT INTO progress (session_id,
                      timestamp,
                      hits,
                      misses,
                      accuracy,
                      avg_reaction_ms,
                      score)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectSessionColumns = `
SELECT id,
       session_id,
       device_id,
       mode,
       difficulty,
       config,
       status,
       error,
       start_time,
       end_time,
       hits,
       misses,
       accuracy,
       avg_reaction_ms,
       score
FROM sessions`

const selectSessionSQL = selectSessionColumns + `
WHERE session_id = ?`

const selectSessionsSQL = selectSessionColumns + `
ORDER BY start_time`

const selectDeviceSessionsSQL = selectSessionColumns + `
WHERE device_id = ?
ORDER BY start_time`

const selectProgressSQL = `
SELECT session_id,
       timestamp,
       hits,
       misses,
       accuracy,
       avg_reaction_ms,
       score
FROM progress
WHERE session_id = ?
ORDER BY id`
