// Package messages содержит тексты сообщений бота. Тексты намеренно
// хранятся литералами: контент согласован с автором марафона и меняется
// вместе с кодом.
package messages

const (
	// Intro первое сообщение после /start.
	Intro = "Привет! Я Ольга Абакумова, врач-эндокринолог, нутрициолог, тренер с 25-летним опытом и просто энергичная девушка, которая живёт свою лучшую жизнь! " +
		"Если ты здесь, значит хочешь похудеть и стать более энергичной. И моя задача — помочь тебе в этом ❤️"

	// Offer описание марафона, отправляется вторым сообщением с кнопкой покупки.
	Offer = "Тысячи женщин мечтают похудеть, вернуть энергию и почувствовать себя уверенно. Но…\n" +
		"❌ Диеты не работают.\n" +
		"❌ Спортзал кажется адом.\n" +
		"❌ Вес уходит медленно (или не уходит вообще).\n" +
		"❌ Каждый день похож на день сурка.\n" +
		"❌ И сил изменить жизнь с каждым днём всё меньше...\n\n" +
		"Что если я скажу, что проблема – не в вас? А в том, что вам навязали подходы, которые не работают. " +
		"За десятки лет работы с пациентами, которые суммарно похудели на тонны и вернули в свою жизнь энергию и счастье, я разработала свою методологию. " +
		"Именно ей я поделюсь на моем новом марафоне.\n\n" +
		"🔥 СБРОС: 50 шагов к стройности, энергии и счастью 🔥\n\n" +
		"Марафон стартует уже 2 марта — и да начнутся 2 недели продуктивной работы над мышлением, образом жизни и привычками! " +
		"Я уже подготовила 50 материалов и 20 заданий — всё для того, чтобы ты смогла наконец почувствовать себя стройной, желанной и энергичной!\n\n" +
		"Что вас ждет?\n" +
		"✅ 14 дней чёткого плана действий – без догадок, что делать дальше.\n" +
		"✅ Эфиры, лекции и подкасты – простыми словами о сложном.\n" +
		"✅ Поддержка и мотивация – вы не одна, мы проходим этот путь вместе.\n\n" +
		"Какие вопросы закроет марафон?\n" +
		"— Как изменить своё питание, чтобы похудеть и быть энергичной\n" +
		"— Гормоны и метаболизм – почему ваше тело «не хочет» худеть\n" +
		"— Питание и движение – как вернуть стройность без голодовок и жести?\n" +
		"— Эмоциональное переедание и стресс – как убрать корень проблемы?\n" +
		"— Витамины и минералы – что нужно вашему телу?\n" +
		"— Генетика и психика — как они влияют на качество жизни?\n" +
		"— План и мотивация — как поменять жизнь и закрепить результат?\n\n" +
		"Для кого этот марафон?\n" +
		"✔ Если ты хочешь сбросить вес и больше его не набирать.\n" +
		"✔ Если чувствуешь усталость и потерю энергии.\n" +
		"✔ Если хочешь понять своё тело и дать ему то, что нужно.\n\n" +
		"Стартуем совсем скоро! Ты с нами?"

	// BuyButton текст кнопки покупки под Offer.
	BuyButton = "КУПИТЬ"

	// AlreadySubscribed ответ на повторную попытку покупки.
	AlreadySubscribed = "❌ У вас уже есть активная подписка."

	// AskEmail запрос email для чека.
	AskEmail = "📧 Пожалуйста, введите ваш email для отправки чека:"

	// BadEmail ответ на email неверного формата.
	BadEmail = "❌ Неверный формат email. Попробуйте еще раз:"

	// PaymentLink сообщение со ссылкой на оплату.
	PaymentLink = "✅ Ссылка для оплаты (действительна 5 минут):"

	// PayButton текст кнопки со ссылкой на оплату.
	PayButton = "💳 Оплатить 2999 рублей"

	// PaymentCreateError ошибка при создании платежа.
	PaymentCreateError = "❌ Ошибка при создании платежа. Попробуйте позже."

	// PaymentCanceled платеж отменен.
	PaymentCanceled = "❌ Платеж отменен."

	// PaymentExpired окно оплаты истекло.
	PaymentExpired = "⌛️ Время оплаты истекло."

	// InviteError оплата прошла, но выдать доступ не удалось.
	InviteError = "❌ Ошибка при создании ссылки. Свяжитесь с администратором."

	// Reminder отложенное напоминание тем, кто не купил подписку.
	Reminder = "СБРОС: веса, убеждений и страхов. Откажись от жизни, которая уже давно не вдохновляет и закончи день сурка — стань, наконец, стройной, энергичной и счастливой! " +
		"Ты всего в шаге от картинки, которую так часто прокручиваешь в голове. Может быть хватит откладывать себя на потом? Ты у себя одна, другие подождут, а ты — нет!\n\n" +
		"Заходи на мой марафон\n🔥 СБРОС: 50 шагов к стройности, энергии и счастью 🔥"
)

// Success собирает сообщение об успешной оплате с email и пригласительной ссылкой.
func Success(email, inviteURL string) string {
	return "✅ Оплата прошла успешно!\n" +
		"📧 Чек отправлен на вашу почту: " + email + "\n" +
		"🔗 Ссылка для запроса доступа к каналу: " + inviteURL + "\n\n" +
		"Пожалуйста, перейдите по ссылке и отправьте запрос на присоединение."
}
