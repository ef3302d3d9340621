package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialPhases(t *testing.T) {
	assert.Equal(t, PhaseAwaitingBuyerTransfer, LegBuyerSettlement.InitialPhase())
	assert.Equal(t, PhaseAwaitingFunds, LegFarmerPayout.InitialPhase())
}

func TestValidPhasePerLeg(t *testing.T) {
	assert.True(t, LegBuyerSettlement.ValidPhase(PhaseAwaitingBuyerTransfer))
	assert.True(t, LegBuyerSettlement.ValidPhase(PhaseCompleted))
	assert.False(t, LegBuyerSettlement.ValidPhase(PhaseAwaitingFunds))
	assert.False(t, LegBuyerSettlement.ValidPhase(PhasePendingExecution))

	assert.True(t, LegFarmerPayout.ValidPhase(PhaseAwaitingFunds))
	assert.True(t, LegFarmerPayout.ValidPhase(PhasePendingExecution))
	assert.True(t, LegFarmerPayout.ValidPhase(PhaseCompleted))
	assert.False(t, LegFarmerPayout.ValidPhase(PhaseAwaitingBuyerTransfer))

	assert.False(t, TransactionLeg("other").ValidPhase(PhaseCompleted))
}
