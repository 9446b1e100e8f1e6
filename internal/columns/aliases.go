package columns

// Field is a logical column name used by the pipelines.
type Field string

// AliasTable maps a logical field to its candidate headers in priority order.
type AliasTable map[Field][]string

// Sales (CRM deal export) fields.
const (
	SalesDate        Field = "date"
	SalesAmount      Field = "amount"
	SalesChannel     Field = "channel"
	SalesAccount     Field = "account"
	SalesModules     Field = "modules"
	LicenseUser      Field = "user_licenses"
	LicenseLeaver    Field = "leaver_licenses"
	LicenseTimesheet Field = "timesheet_licenses"
	LicenseDirectory Field = "directory_licenses"
	LicenseWorkflow  Field = "workflow_licenses"
	LicenseOther     Field = "other_licenses"
)

// Support (ticket export) fields.
const (
	TicketCreated  Field = "created"
	TicketPriority Field = "priority"
	TicketTopic    Field = "topic"
	TicketType     Field = "type"
	TicketGroup    Field = "group"
)

// Customer snapshot module fields.
const (
	ModuleAbsence         Field = "absence"
	ModulePeopleInsights  Field = "people_insights"
	ModuleDirectory       Field = "directory"
	ModuleTimeSubmission  Field = "time_submission"
	ModuleTimeTracking    Field = "time_tracking"
	ModuleEAP             Field = "eap"
	ModuleWorkflowBuilder Field = "workflow_builder"
	ModuleLearning        Field = "learning"
	ModulePerformance     Field = "performance_reviews"
	ModuleExpenses        Field = "expenses"
)

// LicenseFields are summed into a deal's module count.
var LicenseFields = []Field{
	LicenseUser, LicenseLeaver, LicenseTimesheet, LicenseDirectory, LicenseWorkflow, LicenseOther,
}

// SnapshotModules are the product modules counted per client.
var SnapshotModules = []Field{
	ModuleAbsence, ModulePeopleInsights, ModuleDirectory, ModuleTimeSubmission, ModuleTimeTracking,
	ModuleEAP, ModuleWorkflowBuilder, ModuleLearning, ModulePerformance, ModuleExpenses,
}

func SalesAliases() AliasTable {
	return AliasTable{
		SalesDate:        {"CloseDate", "closeDate", "Close_Date", "Date"},
		SalesAmount:      {"Amount", "amount", "deal_amount", "value", "ARR__c"},
		SalesChannel:     {"Sales_Channel__c", "SalesChannel", "Sales Channel", "Channel", "channel", "Type"},
		SalesAccount:     {"AccountId", "Account_ID", "Account ID", "Account Name", "AccountName", "Account"},
		SalesModules:     {"Number_of_Modules__c", "NumberOfModules", "Number of Modules", "Modules"},
		LicenseUser:      {"User_Licenses__c", "UserLicenses", "User Licenses", "Users"},
		LicenseLeaver:    {"Leaver_Licenses__c", "LeaverLicenses", "Leaver Licenses", "Leavers"},
		LicenseTimesheet: {"Timesheet_Licenses__c", "TimesheetLicenses", "Timesheet Licenses", "Timesheet"},
		LicenseDirectory: {"Directory_Licenses__c", "DirectoryLicenses", "Directory Licenses", "Directory"},
		LicenseWorkflow:  {"Workflow_Licenses__c", "WorkflowLicenses", "Workflow Licenses", "Workflow"},
		LicenseOther:     {"Other_Licenses__c", "OtherLicenses", "Other Licenses", "Other"},
	}
}

func SupportAliases() AliasTable {
	return AliasTable{
		TicketCreated:  {"Created Date", "CreatedDate", "Created date", "Created Time", "Created time", "Created At", "created_at", "Date"},
		TicketPriority: {"Priority", "Impact", "Severity", "Urgency"},
		TicketTopic:    {"Topic", "Category", "Subject"},
		TicketType:     {"Type", "Ticket Type", "TicketType"},
		TicketGroup:    {"Group", "Support Group", "Agent Group"},
	}
}

func SnapshotAliases() AliasTable {
	return AliasTable{
		ModuleAbsence:         {"Absence", "Absence Licenses", "Absence_Licences"},
		ModulePeopleInsights:  {"People Insights", "PeopleInsights", "People_Insights"},
		ModuleDirectory:       {"Directory", "Directory Licenses", "Directory_Licences"},
		ModuleTimeSubmission:  {"Time Submission", "TimeSubmission", "Timesheet"},
		ModuleTimeTracking:    {"Time Tracking", "TimeTracking", "Time_Tracking"},
		ModuleEAP:             {"EAP", "Employee Assistance", "Employee Assistance Programme"},
		ModuleWorkflowBuilder: {"Workflow Builder", "WorkflowBuilder", "Workflow"},
		ModuleLearning:        {"Learning", "Learning Suite", "LMS"},
		ModulePerformance:     {"Performance Reviews", "Performance", "Reviews"},
		ModuleExpenses:        {"Expenses", "Expense Management"},
	}
}

// WithOverrides returns a copy where each overridden field uses the given
// candidate list instead of the default. Empty lists are ignored.
func (t AliasTable) WithOverrides(overrides map[string][]string) AliasTable {
	out := make(AliasTable, len(t))
	for f, c := range t {
		out[f] = append([]string(nil), c...)
	}
	for name, candidates := range overrides {
		if len(candidates) == 0 {
			continue
		}
		out[Field(name)] = append([]string(nil), candidates...)
	}
	return out
}
