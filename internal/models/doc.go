// Package models defines the core domain records for harnkan.
//
// # Model Overview
//
//   - Member: a named party in the expense-sharing group
//   - Expense: one recorded shared expense with a payer and a cost split
//   - Transfer: a computed, not-yet-executed recommendation of who pays whom
//   - Settlement: a persisted record that a specific Transfer was paid and verified
//   - Slip: the payment-network evidence attached to a verified Settlement
//   - RecurringTemplate: a subscription that materializes one Expense per month
//
// Members are identified by an upper-cased display key (e.g. "BOB"). The
// registered real name used for payment identity matching is a separate,
// optionally-unset attribute.
//
// # Design Principles
//
//  1. Expenses are immutable once created; months are derived from their dates
//  2. Transfers are ephemeral: recomputed on demand, never stored
//  3. Settlements are the only record of real-world money movement
//  4. Avoid circular references: relationships use key strings, not pointers
package models
