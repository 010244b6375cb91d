package configuration

// AttrKind constrains the value shape of an attribute.
type AttrKind int

const (
	AttrString AttrKind = iota
	AttrInt
	AttrBool
	AttrEnum
	AttrURL
)

// AttrRule describes a single attribute of an element.
type AttrRule struct {
	Required bool
	Kind     AttrKind
	// Enum lists the allowed values when Kind is AttrEnum.
	Enum []string
	// Positive requires a value > 0 when Kind is AttrInt.
	Positive bool
}

// ElementRule describes the allowed shape of one element.
type ElementRule struct {
	Attributes map[string]AttrRule
	// Children lists the allowed child element names.
	Children map[string]bool
	// RequiredChildren must appear at least once.
	RequiredChildren []string
}

// Schema is the fixed document grammar bundled with the server.
type Schema struct {
	RootTag  string
	Elements map[string]ElementRule
}

// Element tag and attribute names of the bundled schema.
const (
	TagRoot            = "buildcontrol"
	TagProject         = "project"
	TagTriggers        = "triggers"
	TagTasks           = "tasks"
	TagIntervalTrigger = "intervalTrigger"
	TagURLTrigger      = "urlTrigger"
	TagExecTask        = "exec"
	TagNoopTask        = "noop"

	AttrName           = "name"
	AttrQueue          = "queue"
	AttrSeconds        = "seconds"
	AttrBuildCondition = "buildCondition"
	AttrURLRef         = "url"
	AttrFireOnStartup  = "fireOnStartup"
	AttrCommand        = "command"
	AttrArgs           = "args"
	AttrBaseDirectory  = "baseDirectory"
)

// Build condition attribute values.
const (
	ConditionIfModificationExists = "IfModificationExists"
	ConditionForceBuild           = "ForceBuild"
)

// DefaultSchema returns the grammar for project configuration documents.
func DefaultSchema() *Schema {
	buildConditions := []string{ConditionIfModificationExists, ConditionForceBuild}

	intervalAttrs := map[string]AttrRule{
		AttrSeconds:        {Required: true, Kind: AttrInt, Positive: true},
		AttrBuildCondition: {Kind: AttrEnum, Enum: buildConditions},
		AttrName:           {Kind: AttrString},
	}
	urlAttrs := map[string]AttrRule{
		AttrSeconds:        {Required: true, Kind: AttrInt, Positive: true},
		AttrBuildCondition: {Kind: AttrEnum, Enum: buildConditions},
		AttrName:           {Kind: AttrString},
		AttrURLRef:         {Required: true, Kind: AttrURL},
		AttrFireOnStartup:  {Kind: AttrBool},
	}

	return &Schema{
		RootTag: TagRoot,
		Elements: map[string]ElementRule{
			TagRoot: {
				Children:         map[string]bool{TagProject: true},
				RequiredChildren: []string{TagProject},
			},
			TagProject: {
				Attributes: map[string]AttrRule{
					AttrName:  {Required: true, Kind: AttrString},
					AttrQueue: {Kind: AttrString},
				},
				Children: map[string]bool{TagTriggers: true, TagTasks: true},
			},
			TagTriggers: {
				Children: map[string]bool{TagIntervalTrigger: true, TagURLTrigger: true},
			},
			TagTasks: {
				Children: map[string]bool{TagExecTask: true, TagNoopTask: true},
			},
			TagIntervalTrigger: {Attributes: intervalAttrs},
			TagURLTrigger:      {Attributes: urlAttrs},
			TagExecTask: {
				Attributes: map[string]AttrRule{
					AttrCommand:       {Required: true, Kind: AttrString},
					AttrArgs:          {Kind: AttrString},
					AttrBaseDirectory: {Kind: AttrString},
				},
			},
			TagNoopTask: {},
		},
	}
}
