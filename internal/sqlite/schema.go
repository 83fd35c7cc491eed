package sqlite

// Schema DDL for all tables. Every statement is idempotent so Attach can run
// it against an existing database.
const (
	createComponents = `CREATE TABLE IF NOT EXISTS components (
    component_id TEXT PRIMARY KEY,
    ordinal INTEGER NOT NULL UNIQUE,
    category TEXT NOT NULL,
    type TEXT NOT NULL,
    variant TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    accessibility TEXT NOT NULL,
    quality TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createComponentTags = `CREATE TABLE IF NOT EXISTS component_tags (
    component_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (component_id, value),
    FOREIGN KEY (component_id) REFERENCES components(component_id) ON DELETE CASCADE
);`

	createComponentMoods = `CREATE TABLE IF NOT EXISTS component_moods (
    component_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (component_id, value),
    FOREIGN KEY (component_id) REFERENCES components(component_id) ON DELETE CASCADE
);`

	createComponentIndustries = `CREATE TABLE IF NOT EXISTS component_industries (
    component_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (component_id, value),
    FOREIGN KEY (component_id) REFERENCES components(component_id) ON DELETE CASCADE
);`

	createComponentVisualStyles = `CREATE TABLE IF NOT EXISTS component_visual_styles (
    component_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (component_id, value),
    FOREIGN KEY (component_id) REFERENCES components(component_id) ON DELETE CASCADE
);`

	createCompositions = `CREATE TABLE IF NOT EXISTS compositions (
    composition_id TEXT PRIMARY KEY,
    ordinal INTEGER NOT NULL UNIQUE,
    template_type TEXT NOT NULL,
    layout TEXT NOT NULL,
    moods TEXT NOT NULL,
    industries TEXT NOT NULL,
    visual_styles TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createCompositionSections = `CREATE TABLE IF NOT EXISTS composition_sections (
    composition_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    section_id TEXT NOT NULL,
    name TEXT NOT NULL,
    query TEXT NOT NULL,
    container_class TEXT NOT NULL DEFAULT '',
    mode_classes TEXT NOT NULL,
    PRIMARY KEY (composition_id, position),
    FOREIGN KEY (composition_id) REFERENCES compositions(composition_id) ON DELETE CASCADE
);`

	createEmbeddings = `CREATE TABLE IF NOT EXISTS embeddings (
    source_id TEXT NOT NULL,
    source_type TEXT NOT NULL,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    dimensions INTEGER NOT NULL,
    model TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (source_id, source_type)
);`

	createFeedback = `CREATE TABLE IF NOT EXISTS feedback (
    feedback_id TEXT PRIMARY KEY,
    generation_id TEXT NOT NULL,
    prompt TEXT NOT NULL DEFAULT '',
    component_type TEXT NOT NULL,
    variant TEXT NOT NULL DEFAULT '',
    mood TEXT NOT NULL DEFAULT '',
    industry TEXT NOT NULL DEFAULT '',
    style TEXT,
    score REAL NOT NULL,
    feedback_type TEXT NOT NULL,
    code_hash TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createCodePatterns = `CREATE TABLE IF NOT EXISTS code_patterns (
    skeleton_hash TEXT PRIMARY KEY,
    skeleton TEXT NOT NULL,
    snippet TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    avg_score REAL NOT NULL,
    promoted INTEGER NOT NULL DEFAULT 0,
    first_seen TEXT NOT NULL,
    last_seen TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxComponentsType       = `CREATE INDEX IF NOT EXISTS idx_components_type ON components(type);`
	idxComponentsCategory   = `CREATE INDEX IF NOT EXISTS idx_components_category ON components(category);`
	idxTagsValue            = `CREATE INDEX IF NOT EXISTS idx_component_tags_value ON component_tags(value);`
	idxMoodsValue           = `CREATE INDEX IF NOT EXISTS idx_component_moods_value ON component_moods(value);`
	idxIndustriesValue      = `CREATE INDEX IF NOT EXISTS idx_component_industries_value ON component_industries(value);`
	idxVisualStylesValue    = `CREATE INDEX IF NOT EXISTS idx_component_visual_styles_value ON component_visual_styles(value);`
	idxEmbeddingsSourceType = `CREATE INDEX IF NOT EXISTS idx_embeddings_source_type ON embeddings(source_type);`
	idxFeedbackType         = `CREATE INDEX IF NOT EXISTS idx_feedback_type ON feedback(component_type);`
	idxFeedbackTypeStyle    = `CREATE INDEX IF NOT EXISTS idx_feedback_type_style ON feedback(component_type, style);`
	idxFeedbackCodeHash     = `CREATE INDEX IF NOT EXISTS idx_feedback_code_hash ON feedback(code_hash);`
	idxCodePatternsPromoted = `CREATE INDEX IF NOT EXISTS idx_code_patterns_promoted ON code_patterns(promoted);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createComponents,
	createComponentTags,
	createComponentMoods,
	createComponentIndustries,
	createComponentVisualStyles,
	createCompositions,
	createCompositionSections,
	createEmbeddings,
	createFeedback,
	createCodePatterns,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxComponentsType,
	idxComponentsCategory,
	idxTagsValue,
	idxMoodsValue,
	idxIndustriesValue,
	idxVisualStylesValue,
	idxEmbeddingsSourceType,
	idxFeedbackType,
	idxFeedbackTypeStyle,
	idxFeedbackCodeHash,
	idxCodePatternsPromoted,
}

// edgeTables names the junction table for each multi-valued attribute.
const (
	edgeTags         = "component_tags"
	edgeMoods        = "component_moods"
	edgeIndustries   = "component_industries"
	edgeVisualStyles = "component_visual_styles"
)

// edgeTableNames lists the junction tables in a fixed order.
var edgeTableNames = []string{edgeTags, edgeMoods, edgeIndustries, edgeVisualStyles}
