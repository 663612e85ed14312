package cluster

const freshSchema = `
CREATE TABLE config (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    key TEXT NOT NULL,
    value TEXT,
    UNIQUE (key)
);

CREATE TABLE hosts (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    base_url TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    node_name TEXT NOT NULL DEFAULT '',
    max_jobs INTEGER NOT NULL,
    online INTEGER NOT NULL DEFAULT 1,
    active INTEGER NOT NULL DEFAULT 1,
    maintenance INTEGER NOT NULL DEFAULT 0,
    UNIQUE (base_url)
);

CREATE TABLE services (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    host_id INTEGER NOT NULL,
    service_type TEXT NOT NULL,
    path TEXT NOT NULL,
    online INTEGER NOT NULL DEFAULT 1,
    active INTEGER NOT NULL DEFAULT 1,
    job_producer INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0,
    warning_trigger TEXT NOT NULL DEFAULT '',
    error_trigger TEXT NOT NULL DEFAULT '',
    state_changed DATETIME NOT NULL,
    online_from DATETIME NOT NULL,
    UNIQUE (host_id, service_type),
    FOREIGN KEY (host_id) REFERENCES hosts (id) ON DELETE RESTRICT
);

CREATE TABLE organizations (
    id TEXT PRIMARY KEY NOT NULL,
    name TEXT NOT NULL
);

CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    username TEXT NOT NULL,
    organization_id TEXT NOT NULL,
    UNIQUE (username, organization_id),
    FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
);

CREATE TABLE jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    version INTEGER NOT NULL DEFAULT 0,
    type TEXT NOT NULL,
    operation TEXT NOT NULL,
    arguments TEXT NOT NULL DEFAULT '[]',
    payload TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL,
    dispatchable INTEGER NOT NULL DEFAULT 1,
    creator TEXT NOT NULL DEFAULT '',
    organization TEXT NOT NULL DEFAULT '',
    creator_service_id INTEGER,
    processor_service_id INTEGER,
    parent_id INTEGER,
    root_id INTEGER,
    date_created DATETIME NOT NULL,
    date_started DATETIME NOT NULL,
    date_completed DATETIME NOT NULL,
    queue_time INTEGER NOT NULL DEFAULT 0,
    run_time INTEGER NOT NULL DEFAULT 0,
    signature TEXT NOT NULL,
    FOREIGN KEY (creator_service_id) REFERENCES services (id) ON DELETE SET NULL,
    FOREIGN KEY (processor_service_id) REFERENCES services (id) ON DELETE SET NULL,
    FOREIGN KEY (parent_id) REFERENCES jobs (id) ON DELETE CASCADE,
    FOREIGN KEY (root_id) REFERENCES jobs (id) ON DELETE CASCADE
);
CREATE INDEX jobs_status_idx ON jobs (status, dispatchable);
CREATE INDEX jobs_processor_idx ON jobs (processor_service_id, status);
CREATE INDEX jobs_parent_idx ON jobs (parent_id);
CREATE INDEX jobs_root_idx ON jobs (root_id);

CREATE TABLE incidents (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    job_id INTEGER NOT NULL,
    timestamp DATETIME NOT NULL,
    code TEXT NOT NULL,
    severity INTEGER NOT NULL,
    parameters TEXT NOT NULL DEFAULT '{}',
    details TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (job_id) REFERENCES jobs (id) ON DELETE CASCADE
);
CREATE INDEX incidents_job_idx ON incidents (job_id);

INSERT INTO organizations (id, name) VALUES ('default', 'Default Organization');

INSERT INTO schema (version, updated_at) VALUES (3, strftime("%s"));
`
