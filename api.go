package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MixinNetwork/mixin/crypto"
	"github.com/Zesty080/NFT-Whitelist/sale"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// The HTTP surface trusts the gateway in front of it for caller identity, a
// request's address field is the authenticated caller.

type MintRequest struct {
	Address string   `json:"address" binding:"required"`
	Amount  uint64   `json:"amount" binding:"required"`
	Payment string   `json:"payment" binding:"required"`
	Proof   []string `json:"proof,omitempty"`
}

type StakeRequest struct {
	Caller string `json:"caller" binding:"required"`
	Staked *bool  `json:"staked" binding:"required"`
}

type ReplaceRequest struct {
	Caller     string `json:"caller" binding:"required"`
	Holder     string `json:"holder" binding:"required"`
	OldTraitId uint64 `json:"old_trait_id" binding:"required"`
}

type ConfigRequest struct {
	Caller              string  `json:"caller" binding:"required"`
	PresalePrice        string  `json:"presale_price,omitempty"`
	PublicPrice         string  `json:"public_price,omitempty"`
	TotalCap            *uint64 `json:"total_cap,omitempty"`
	PerHolderCap        *uint64 `json:"per_holder_cap,omitempty"`
	PresaleCap          *uint64 `json:"presale_cap,omitempty"`
	PresaleStart        int64   `json:"presale_start,omitempty"`
	AllowlistCommitment string  `json:"allowlist_commitment,omitempty"`
	BaseURI             string  `json:"base_uri,omitempty"`
	StakingAuthority    string  `json:"staking_authority,omitempty"`
	Manager             string  `json:"manager,omitempty"`
}

func buildRouter(machine *sale.Machine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/presale-mints", func(c *gin.Context) {
		var req MintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payment, err := decimal.NewFromString(req.Payment)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment"})
			return
		}
		proof := make([]crypto.Hash, 0, len(req.Proof))
		for _, p := range req.Proof {
			h, err := crypto.HashFromString(p)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proof"})
				return
			}
			proof = append(proof, h)
		}
		recs, err := machine.PresaleMint(c.Request.Context(), req.Address, req.Amount, payment, proof)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"avatars": renderAvatars(recs)})
	})

	r.POST("/public-mints", func(c *gin.Context) {
		var req MintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payment, err := decimal.NewFromString(req.Payment)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment"})
			return
		}
		recs, err := machine.PublicMint(c.Request.Context(), req.Address, req.Amount, payment)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"avatars": renderAvatars(recs)})
	})

	r.POST("/avatars/:id/staked", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req StakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = machine.SetStaked(req.Caller, id, *req.Staked)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "staked": *req.Staked})
	})

	r.GET("/avatars/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		rec, err := machine.Avatar(id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		uri, err := machine.MetadataURI(id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       rec.ID,
			"trait_id": rec.TraitID,
			"staked":   rec.Staked,
			"metadata": uri,
		})
	})

	r.GET("/holders/:address/avatars", func(c *gin.Context) {
		recs, err := machine.AvatarsByHolder(c.Param("address"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"avatars": renderAvatars(recs)})
	})

	r.GET("/supply", func(c *gin.Context) {
		sequence, presaleIssued := machine.Supply()
		c.JSON(http.StatusOK, gin.H{
			"total_issued":   sequence,
			"presale_issued": presaleIssued,
		})
	})

	r.POST("/admin/replaces", func(c *gin.Context) {
		var req ReplaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := machine.AdminReplace(c.Request.Context(), req.Caller, req.Holder, req.OldTraitId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": rec.ID, "trait_id": rec.TraitID})
	})

	r.POST("/deposits", func(c *gin.Context) {
		var req struct {
			Amount string `json:"amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		err = machine.Deposit(amount)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deposited": true})
	})

	r.POST("/admin/withdrawals", func(c *gin.Context) {
		var req struct {
			Caller string `json:"caller" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := machine.Withdraw(c.Request.Context(), req.Caller)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"withdrawn": true})
	})

	r.POST("/admin/config", func(c *gin.Context) {
		var req ConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := applyConfig(machine, &req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	})

	return r
}

func applyConfig(machine *sale.Machine, req *ConfigRequest) error {
	// prices update together
	if req.PresalePrice != "" && req.PublicPrice != "" {
		presale, err := decimal.NewFromString(req.PresalePrice)
		if err != nil {
			return err
		}
		public, err := decimal.NewFromString(req.PublicPrice)
		if err != nil {
			return err
		}
		if err := machine.SetPrices(req.Caller, presale, public); err != nil {
			return err
		}
	}
	if req.TotalCap != nil || req.PerHolderCap != nil || req.PresaleCap != nil {
		// omitted caps keep their current value
		caps := machine.Caps()
		if req.TotalCap != nil {
			caps.Total = *req.TotalCap
		}
		if req.PerHolderCap != nil {
			caps.PerHolder = *req.PerHolderCap
		}
		if req.PresaleCap != nil {
			caps.Presale = *req.PresaleCap
		}
		if err := machine.SetCaps(req.Caller, caps); err != nil {
			return err
		}
	}
	if req.PresaleStart > 0 {
		if err := machine.SetPresaleStart(req.Caller, time.Unix(req.PresaleStart, 0)); err != nil {
			return err
		}
	}
	if req.AllowlistCommitment != "" {
		commitment, err := crypto.HashFromString(req.AllowlistCommitment)
		if err != nil {
			return err
		}
		if err := machine.SetAllowlistCommitment(req.Caller, commitment); err != nil {
			return err
		}
	}
	if req.BaseURI != "" {
		if err := machine.SetBaseURI(req.Caller, req.BaseURI); err != nil {
			return err
		}
	}
	if req.StakingAuthority != "" {
		if err := machine.SetStakingAuthority(req.Caller, req.StakingAuthority); err != nil {
			return err
		}
	}
	if req.Manager != "" {
		if err := machine.SetManager(req.Caller, req.Manager); err != nil {
			return err
		}
	}
	return nil
}

func renderAvatars(recs []*sale.AvatarRecord) []gin.H {
	avatars := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		avatars = append(avatars, gin.H{
			"id":       rec.ID,
			"trait_id": rec.TraitID,
			"staked":   rec.Staked,
		})
	}
	return avatars
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sale.ErrPhaseNotOpen), errors.Is(err, sale.ErrNotAllowlisted):
		status = http.StatusForbidden
	case errors.Is(err, sale.ErrCapExceeded):
		status = http.StatusConflict
	case errors.Is(err, sale.ErrInsufficientPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, sale.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, sale.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, sale.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sale.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
