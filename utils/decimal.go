/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package utils
package utils

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FigurePrecision is the number of decimal places every published figure
// carries.
const FigurePrecision int32 = 12

var ErrInvalidAmount = errors.New("invalid amount")

// NormalizeBigInt converts a raw amount in smallest units into whole tokens.
// The conversion is exact: raw * 10^-decimals.
func NormalizeBigInt(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// NormalizeString parses an amount string (integer or decimal) expressed in
// smallest units and converts it into whole tokens.
func NormalizeString(raw string, decimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d.Shift(-decimals), nil
}

// Subtract returns total minus every deduction, without any rounding.
func Subtract(total decimal.Decimal, deductions ...decimal.Decimal) decimal.Decimal {
	result := total
	for _, d := range deductions {
		result = result.Sub(d)
	}
	return result
}

// Sum adds values without any rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	result := decimal.Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// TruncateFigure drops every digit past FigurePrecision, toward zero.
func TruncateFigure(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(FigurePrecision)
}

// FormatFigure serializes d with exactly FigurePrecision decimal places,
// truncating toward zero. It never rounds up.
func FormatFigure(d decimal.Decimal) string {
	return TruncateFigure(d).StringFixed(FigurePrecision)
}
