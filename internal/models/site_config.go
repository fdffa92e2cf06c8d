package models

// AdItem is a promotional slide shown in the ad carousel. Slice order is
// display order.
type AdItem struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

// SiteConfig is the singleton record of editable site text, contact info and
// ad settings. It is replaced wholesale on each edit.
type SiteConfig struct {
	SiteName          string   `json:"siteName"`
	AgentNo           string   `json:"agentNo"`
	Phone             string   `json:"phone"`
	FooterText        string   `json:"footerText"`
	AboutText         string   `json:"aboutText"`
	AdsEnabled        bool     `json:"adsEnabled"`
	Ads               []AdItem `json:"ads"`
	NotificationEmail string   `json:"notificationEmail"`
}
