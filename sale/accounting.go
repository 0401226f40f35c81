package sale

import "time"

type Caps struct {
	Total     uint64
	PerHolder uint64
	Presale   uint64
}

// Accounting owns the issuance counters. It is only ever touched by the
// machine while the request lock is held, and the counters only move through
// RecordIssuance after a request fully committed.
type Accounting struct {
	sequence      uint64
	presaleIssued uint64
}

func NewAccounting(sequence, presaleIssued uint64) *Accounting {
	return &Accounting{
		sequence:      sequence,
		presaleIssued: presaleIssued,
	}
}

func (ac *Accounting) Sequence() uint64 {
	return ac.sequence
}

func (ac *Accounting) PresaleIssued() uint64 {
	return ac.presaleIssued
}

func (ac *Accounting) PhaseOpen(phase Phase, now, presaleStart time.Time) error {
	if phase == PhasePresale && now.Before(presaleStart) {
		return ErrPhaseNotOpen
	}
	return nil
}

// CanIssue applies the cap checks in a fixed order, first failure wins:
// presale cap, then total cap, then per-holder cap. The checks compare
// against the remaining headroom so a huge amount cannot wrap the counters
// around uint64.
func (ac *Accounting) CanIssue(phase Phase, caps Caps, holderBalance, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if phase == PhasePresale {
		if ac.presaleIssued > caps.Presale || amount > caps.Presale-ac.presaleIssued {
			return ErrCapExceeded
		}
	}
	if ac.sequence > caps.Total || amount > caps.Total-ac.sequence {
		return ErrCapExceeded
	}
	if holderBalance > caps.PerHolder || amount > caps.PerHolder-holderBalance {
		return ErrCapExceeded
	}
	return nil
}

// CanReissue admits one admin replacement. A replacement consumes total
// supply but neither presale capacity nor the holder cap.
func (ac *Accounting) CanReissue(caps Caps) error {
	if ac.sequence >= caps.Total {
		return ErrCapExceeded
	}
	return nil
}

func (ac *Accounting) RecordIssuance(phase Phase, amount uint64) {
	ac.sequence += amount
	if phase == PhasePresale {
		ac.presaleIssued += amount
	}
}
