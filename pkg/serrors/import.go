package serrors

// Outcome classes of an import run.
var (
	ErrStructural  = NewError("VAULT_STRUCTURAL", "structural error in import document", "Vault.Errors.Structural")
	ErrPersistence = NewError("VAULT_PERSISTENCE", "persistence failure", "Vault.Errors.Persistence")
	ErrCancelled   = NewError("VAULT_CANCELLED", "import cancelled", "Vault.Errors.Cancelled")
	ErrAborted     = NewError("VAULT_ABORTED", "import aborted: store already holds data", "Vault.Errors.Aborted")
)
