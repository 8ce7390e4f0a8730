// Package policyservice implements the policy ledger: policy creation,
// per-owner listings and the admin listing. Expiry and active/expired status
// are projections computed at read time and never written back.
package policyservice
