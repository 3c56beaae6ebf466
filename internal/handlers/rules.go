package handlers

import (
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/types"
)

var (
	admin   = types.RoleAdmin
	manager = types.RoleManager
	tenant  = types.RoleTenant
)

// Route rules. Each protected route names exactly one of these.
var (
	RuleUsersRead = auth.Allow("users.read", admin)

	RuleFlatsRead   = auth.Allow("flats.read")
	RuleFlatsWrite  = auth.Allow("flats.write", admin, manager)
	RuleFlatsDelete = auth.Allow("flats.delete", admin)

	RuleTenantsList   = auth.Allow("tenants.list", admin, manager)
	RuleTenantsRead   = auth.Allow("tenants.read", admin, manager).OwnedBy(auth.OwnTenant)
	RuleTenantsSelf   = auth.Allow("tenants.self", tenant)
	RuleTenantsWrite  = auth.Allow("tenants.write", admin, manager)
	RuleTenantsDelete = auth.Allow("tenants.delete", admin)

	RulePaymentsList     = auth.Allow("payments.list", admin, manager)
	RulePaymentsRead     = auth.Allow("payments.read", admin, manager).OwnedBy(auth.OwnPayment)
	RulePaymentsByTenant = auth.Allow("payments.by_tenant", admin, manager).OwnedBy(auth.OwnTenant)
	RulePaymentsWrite    = auth.Allow("payments.write", admin, manager)
	RulePaymentsPay      = auth.Allow("payments.pay", admin, manager)
	RulePaymentsDelete   = auth.Allow("payments.delete", admin)

	RuleComplaintsList     = auth.Allow("complaints.list", admin, manager)
	RuleComplaintsRead     = auth.Allow("complaints.read", admin, manager).OwnedBy(auth.OwnComplaint)
	RuleComplaintsByTenant = auth.Allow("complaints.by_tenant", admin, manager).OwnedBy(auth.OwnTenant)
	RuleComplaintsCreate   = auth.Allow("complaints.create", admin, manager, tenant)
	RuleComplaintsFor      = auth.Allow("complaints.create_for", admin, manager).OwnedBy(auth.OwnTenant)
	RuleComplaintsWrite    = auth.Allow("complaints.write", admin, manager)
	RuleComplaintsDelete   = auth.Allow("complaints.delete", admin)

	RuleDocumentsList     = auth.Allow("documents.list", admin, manager)
	RuleDocumentsRead     = auth.Allow("documents.read", admin, manager).OwnedBy(auth.OwnDocument)
	RuleDocumentsByTenant = auth.Allow("documents.by_tenant", admin, manager).OwnedBy(auth.OwnTenant)
	RuleDocumentsUpload   = auth.Allow("documents.upload", admin, manager, tenant)
	RuleDocumentsFor      = auth.Allow("documents.upload_for", admin, manager).OwnedBy(auth.OwnTenant)
	RuleDocumentsWrite    = auth.Allow("documents.write", admin, manager)
	RuleDocumentsVerify   = auth.Allow("documents.verify", admin, manager)
	RuleDocumentsDelete   = auth.Allow("documents.delete", admin)
)
