package physics

import "math"

// Plant power closure and economics proxies. Transparent bookkeeping for
// relative comparisons in design-space screening, not plant costing.

// Cost calibration coefficients. Tuned for relative comparisons only.
const (
	kCostMagnet  = 0.12 // MUSD per T^2*m^3
	kCostBlanket = 0.08 // MUSD per m^3 of blanket+shield
	kCostBOP     = 0.35 // MUSD per MW thermal
	kCostCryo    = 6.0  // MUSD per MW at 20 K
	kCostMaint   = 15.0 // MUSD/yr per MW/m^2 wall load
	tCoilProxy   = 0.5  // coil radial thickness proxy [m]
	elecPriceUSD = 60.0 // USD/MWh for recirculated electricity
)

// ElectricEfficiency is a thermal-cycle efficiency proxy from the coolant
// outlet temperature, clamped to [0.25, 0.55].
func ElectricEfficiency(tOutletK float64) float64 {
	return clamp(0.35+1.3e-4*(tOutletK-700), 0.25, 0.55)
}

// PlantPower is the net-electric closure of a design point.
type PlantPower struct {
	PthMW     float64
	PeGrossMW float64
	PrecircMW float64
	PeNetMW   float64
	Qe        float64
}

// PlantClosure books thermal power, gross electric, recirculating loads
// and net electric power.
func PlantClosure(pfusMW, pauxMW, pcdMW, etaElec, blanketMult,
	etaAux, etaCD, pBopMW, pPumpsMW, pCryo20KMW, cryoCOP float64) PlantPower {
	pth := math.Max(blanketMult, 0) * math.Max(pfusMW, 0)
	peGross := math.Max(etaElec, 0) * pth
	pauxEl := math.Max(pauxMW, 0) / math.Max(etaAux, tiny)
	pcdEl := math.Max(pcdMW, 0) / math.Max(etaCD, tiny)
	pcryoEl := math.Max(pCryo20KMW, 0) / math.Max(cryoCOP, tiny)
	precirc := pauxEl + pcdEl + math.Max(pBopMW, 0) + math.Max(pPumpsMW, 0) + pcryoEl
	peNet := peGross - precirc
	return PlantPower{
		PthMW:     pth,
		PeGrossMW: peGross,
		PrecircMW: precirc,
		PeNetMW:   peNet,
		Qe:        peGross / math.Max(precirc, tiny),
	}
}

// CapexProxy returns a capital-cost proxy [MUSD] dominated by magnets,
// in-vessel build and balance of plant.
func CapexProxy(bPeakT, surfaceM2, tShield, pthMW, pCryo20KMW float64) float64 {
	vCoil := surfaceM2 * tCoilProxy
	costMagnet := kCostMagnet * math.Max(bPeakT, 0) * math.Max(bPeakT, 0) * vCoil
	costBlanket := kCostBlanket * surfaceM2 * math.Max(tShield, 0.1)
	costBOP := kCostBOP * math.Max(pthMW, 0)
	costCryo := kCostCryo * math.Max(pCryo20KMW, 0)
	return costMagnet + costBlanket + costBOP + costCryo
}

// OpexProxy returns an annual operating-cost proxy [MUSD/yr]: recirculated
// electricity plus wall-load-driven replacement.
func OpexProxy(precircMW, nwlMWm2, availability float64) float64 {
	hours := 8760 * clamp(availability, 0, 1)
	opexElec := elecPriceUSD * math.Max(precircMW, 0) * hours / 1e6
	opexMaint := kCostMaint * math.Max(nwlMWm2, 0)
	return opexElec + opexMaint
}

// COEProxy returns (FCR*CAPEX + OPEX)/E_net in USD/MWh. Non-positive net
// generation yields NaN.
func COEProxy(capexMUSD, opexMUSDyr, fcr, peNetMW, availability float64) float64 {
	eNetMWh := math.Max(peNetMW, 0) * 8760 * clamp(availability, 0, 1)
	if !(eNetMWh > tiny) {
		return math.NaN()
	}
	return (fcr*capexMUSD + opexMUSDyr) * 1e6 / eNetMWh
}
