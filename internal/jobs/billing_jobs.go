package jobs

const (
	JobAutoInvoicePastDue         = "auto-invoice-past-due"
	JobSendPaymentReminders       = "send-payment-reminders"
	JobInitiateValidatedTransfers = "initiate-validated-transfers"
)

// AutoInvoicePastDue invoices accepted quotes whose service date has passed
func (jr *JobRunner) AutoInvoicePastDue() {
	jr.runWithRecovery(JobAutoInvoicePastDue, jr.services.Invoices.AutoInvoicePastDue)
}

// SendPaymentReminders escalates overdue invoices along the reminder ladder
func (jr *JobRunner) SendPaymentReminders() {
	jr.runWithRecovery(JobSendPaymentReminders, jr.services.Reminders.SendPaymentReminders)
}

// InitiateValidatedTransfers hands accepted SEPA transfers to the bank contact
func (jr *JobRunner) InitiateValidatedTransfers() {
	jr.runWithRecovery(JobInitiateValidatedTransfers, jr.services.Sepa.InitiateValidatedTransfers)
}

// Run executes one job by name; false when the name is unknown
func (jr *JobRunner) Run(name string) bool {
	switch name {
	case JobAutoInvoicePastDue:
		jr.AutoInvoicePastDue()
	case JobSendPaymentReminders:
		jr.SendPaymentReminders()
	case JobInitiateValidatedTransfers:
		jr.InitiateValidatedTransfers()
	case "all":
		jr.RunAll()
	default:
		return false
	}
	return true
}

// JobNames lists the names accepted by Run
func JobNames() []string {
	return []string{JobAutoInvoicePastDue, JobSendPaymentReminders, JobInitiateValidatedTransfers, "all"}
}
